// Package revision maps a commit-position revision to a git commit through
// the public numbering service.
package revision

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"
)

// DefaultNumberingURL is the numbering service endpoint.
const DefaultNumberingURL = "https://cr-rev.appspot.com/_ah/api/crrev/v1/get_numbering"

// V8Repo is the repository name V8 revisions are numbered in.
const V8Repo = "v8/v8"

// Commit is a revision resolved to its git sha.
type Commit struct {
	Revision int
	SHA      string
}

// Getter returns the body of a GET request.
type Getter interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// HTTPGetter is an unauthenticated Getter.
type HTTPGetter struct {
	Client *http.Client
}

// Get returns the body of a 200 response to rawURL.
func (g HTTPGetter) Get(ctx context.Context, rawURL string) ([]byte, error) {
	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("numbering service returned status %d: %s", resp.StatusCode, body)
	}
	return body, nil
}

// Resolver looks up commits by revision.
type Resolver struct {
	logger  zerolog.Logger
	getter  Getter
	baseURL string
}

// NewResolver creates a Resolver. An empty baseURL selects
// DefaultNumberingURL.
func NewResolver(logger zerolog.Logger, getter Getter, baseURL string) *Resolver {
	if baseURL == "" {
		baseURL = DefaultNumberingURL
	}
	return &Resolver{
		logger:  logger,
		getter:  getter,
		baseURL: baseURL,
	}
}

// URL returns the lookup URL for revision in repo.
func (r *Resolver) URL(revision int, repo string) string {
	return r.baseURL +
		"?project=chromium" +
		"&repo=" + url.QueryEscape(repo) +
		"&number=" + strconv.Itoa(revision) +
		"&numbering_type=COMMIT_POSITION" +
		"&numbering_identifier=" + url.QueryEscape("refs/heads/master")
}

type numbering struct {
	GitSHA string `json:"git_sha"`
}

// Resolve returns the commit for revision. Errors from the getter are
// returned as is.
func (r *Resolver) Resolve(ctx context.Context, revision int, repo string) (Commit, error) {
	u := r.URL(revision, repo)
	r.logger.Debug().Str("url", u).Int("revision", revision).Msg("Resolving revision")

	body, err := r.getter.Get(ctx, u)
	if err != nil {
		return Commit{}, err
	}

	var n numbering
	if err := json.Unmarshal(body, &n); err != nil {
		return Commit{}, fmt.Errorf("failed to decode numbering response: %w", err)
	}
	if n.GitSHA == "" {
		return Commit{}, fmt.Errorf("numbering response for revision %d has no git_sha", revision)
	}

	r.logger.Info().Int("revision", revision).Str("sha", n.GitSHA).Msg("Resolved revision")
	return Commit{Revision: revision, SHA: n.GitSHA}, nil
}
