package revision

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeGetter struct {
	body []byte
	err  error
	urls []string
}

func (f *fakeGetter) Get(ctx context.Context, rawURL string) ([]byte, error) {
	f.urls = append(f.urls, rawURL)
	return f.body, f.err
}

func TestResolver_URL(t *testing.T) {
	r := NewResolver(zerolog.Nop(), &fakeGetter{}, "")

	require.Equal(t,
		"https://cr-rev.appspot.com/_ah/api/crrev/v1/get_numbering?project=chromium&repo=v8%2Fv8&number=12345&numbering_type=COMMIT_POSITION&numbering_identifier=refs%2Fheads%2Fmaster",
		r.URL(12345, V8Repo))
}

func TestResolver_Resolve(t *testing.T) {
	transportErr := errors.New("connection refused")

	tests := []struct {
		name    string
		body    string
		err     error
		want    Commit
		wantErr error
	}{
		{
			name: "sha returned",
			body: `{"git_sha": "1a2s3d4f", "number": "12345"}`,
			want: Commit{Revision: 12345, SHA: "1a2s3d4f"},
		},
		{
			name:    "transport error passed through",
			err:     transportErr,
			wantErr: transportErr,
		},
		{
			name: "missing sha",
			body: `{"number": "12345"}`,
		},
		{
			name: "malformed body",
			body: `not json`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &fakeGetter{body: []byte(tt.body), err: tt.err}
			r := NewResolver(zerolog.Nop(), g, "")

			got, err := r.Resolve(context.Background(), 12345, V8Repo)
			require.Len(t, g.urls, 1)
			require.Equal(t, r.URL(12345, V8Repo), g.urls[0])

			if tt.want.SHA == "" {
				require.Error(t, err)
				if tt.wantErr != nil {
					require.Same(t, tt.wantErr, err)
				}
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestHTTPGetter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "chromium", r.URL.Query().Get("project"))
		assert.Equal(t, "v8/v8", r.URL.Query().Get("repo"))
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"git_sha": "abcdef"}`))
	}))
	defer srv.Close()

	r := NewResolver(zerolog.Nop(), HTTPGetter{Client: srv.Client()}, srv.URL)
	got, err := r.Resolve(context.Background(), 1, V8Repo)
	require.NoError(t, err)
	require.Equal(t, Commit{Revision: 1, SHA: "abcdef"}, got)
}

func TestHTTPGetter_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := HTTPGetter{Client: srv.Client()}.Get(context.Background(), srv.URL)
	require.ErrorContains(t, err, "status 404")
}
