package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/cfrepro/cfrepro/prompt"
	"github.com/rs/zerolog"
)

// Header is the response header carrying a freshly issued authorization.
const Header = "x-clusterfuzz-authorization"

// maxRounds bounds the request/challenge loop: one stale credential is
// tolerated, a second rejection is final.
const maxRounds = 2

// OAuthURL is the login page the verification code is obtained from.
var OAuthURL = "https://accounts.google.com/o/oauth2/v2/auth?" + url.Values{
	"scope":         {"email profile"},
	"client_id":     {"981641712411-sj50drhontt4m3gjc3hordjmpc7bn50f.apps.googleusercontent.com"},
	"response_type": {"code"},
	"redirect_uri":  {"urn:ietf:wg:oauth:2.0:oob"},
}.Encode()

// Asker obtains validated interactive input.
type Asker interface {
	Ask(question, errorMessage string, validate func(string) bool) (string, error)
}

// BrowserOpener shows url to the user.
type BrowserOpener func(url string) error

// Fetcher performs authenticated GET requests against ClusterFuzz.
type Fetcher struct {
	logger      zerolog.Logger
	store       *Store
	asker       Asker
	client      *http.Client
	openBrowser BrowserOpener
	oauthURL    string
	interactive func() bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithBrowserOpener replaces the default browser launcher.
func WithBrowserOpener(o BrowserOpener) Option {
	return func(f *Fetcher) {
		f.openBrowser = o
	}
}

// WithInteractive replaces the terminal check deciding whether a browser
// is opened for the login page.
func WithInteractive(interactive func() bool) Option {
	return func(f *Fetcher) {
		f.interactive = interactive
	}
}

// WithOAuthURL overrides the login page URL.
func WithOAuthURL(u string) Option {
	return func(f *Fetcher) {
		f.oauthURL = u
	}
}

// NewFetcher creates a Fetcher using store for credentials and asker for
// the verification code.
func NewFetcher(logger zerolog.Logger, store *Store, asker Asker, opts ...Option) *Fetcher {
	f := &Fetcher{
		logger:      logger,
		store:       store,
		asker:       asker,
		client:      http.DefaultClient,
		openBrowser: OpenBrowser,
		oauthURL:    OAuthURL,
		interactive: prompt.Interactive,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the body of a successful GET of rawURL. The stored header
// is used first; a missing header or a 401 triggers the challenge. The
// header issued with a successful response is persisted.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	header, ok, err := f.store.Load()
	if err != nil {
		return nil, err
	}

	var (
		status int
		body   []byte
	)
	for round := 0; round < maxRounds; round++ {
		if !ok || status == http.StatusUnauthorized {
			header, err = f.Challenge(ctx)
			if err != nil {
				return nil, err
			}
			ok = true
		}

		var issued string
		status, body, issued, err = f.get(ctx, rawURL, header)
		if err != nil {
			return nil, err
		}
		if status == http.StatusOK {
			if issued == "" {
				issued = header
			}
			if err := f.store.Save(issued); err != nil {
				return nil, err
			}
			return body, nil
		}

		f.logger.Debug().
			Str("url", rawURL).
			Int("status", status).
			Int("round", round+1).
			Msg("Authenticated request rejected")
	}

	return nil, &AuthError{Status: status, Body: string(body)}
}

// Login runs the challenge and stores the resulting verification header.
// The server exchanges it for a regular authorization on the next request.
func (f *Fetcher) Login(ctx context.Context) error {
	header, err := f.Challenge(ctx)
	if err != nil {
		return err
	}
	return f.store.Save(header)
}

// Challenge opens the login page and asks for the verification code. The
// browser is only opened when stdin is a terminal.
func (f *Fetcher) Challenge(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if f.interactive() {
		f.logger.Info().Str("url", f.oauthURL).Msg("Opening login page to obtain a verification code")
		if err := f.openBrowser(f.oauthURL); err != nil {
			f.logger.Warn().Err(err).Msg("Failed to open browser, visit the login page manually")
		}
	} else {
		f.logger.Warn().Str("url", f.oauthURL).Msg("stdin is not a terminal, visit the login page manually")
	}

	code, err := f.asker.Ask("Please enter your verification code", "Please enter a code", prompt.NonEmpty)
	if err != nil {
		return "", fmt.Errorf("failed to read verification code: %w", err)
	}
	return "VerificationCode " + code, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL, header string) (status int, body []byte, issued string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", header)

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, nil, "", fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, "", fmt.Errorf("failed to read response from %s: %w", rawURL, err)
	}
	return resp.StatusCode, body, resp.Header.Get(Header), nil
}
