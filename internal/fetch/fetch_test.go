package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestFetchOK(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")
		assert.Contains(t, r.Header.Get("Accept-Language"), "es-MX")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><title>Producto</title><body>$199.99</body></html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	page, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, srv.URL, page.URL)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Contains(t, page.Body, "$199.99")
}

func TestFetchDecodesLatin1(t *testing.T) {
	t.Parallel()

	encoded, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte("Jabón líquido"))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write(encoded)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	page, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, page.Body, "Jabón líquido")
}

func TestFetchErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestFetchBlocked(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("<html>Checking your browser before accessing</html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")
}

func TestFetchTruncatesLargeBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", maxBodyBytes+1024)))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	page, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, page.Body, maxBodyBytes)
}

func TestDetectBlock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		headers map[string]string
		body    string
		blocked bool
		kind    BlockKind
	}{
		{
			name:    "clean page",
			status:  200,
			body:    "<html><body>precio $99</body></html>" + strings.Repeat(" ", 2000),
			blocked: false,
			kind:    BlockNone,
		},
		{
			name:    "rate limited",
			status:  429,
			body:    "slow down",
			blocked: true,
			kind:    BlockRateLimit,
		},
		{
			name:    "cloudflare headers",
			status:  403,
			headers: map[string]string{"cf-ray": "abc123"},
			body:    "denied",
			blocked: true,
			kind:    BlockCloudflare,
		},
		{
			name:    "captcha body",
			status:  200,
			body:    "<div class=\"g-recaptcha\"></div>" + strings.Repeat(" ", 2000),
			blocked: true,
			kind:    BlockCaptcha,
		},
		{
			name:    "js shell",
			status:  200,
			body:    "<noscript>enable JavaScript</noscript>",
			blocked: true,
			kind:    BlockJSShell,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp := &http.Response{StatusCode: tt.status, Header: http.Header{}}
			for k, v := range tt.headers {
				resp.Header.Set(k, v)
			}
			blocked, kind := DetectBlock(resp, []byte(tt.body))
			assert.Equal(t, tt.blocked, blocked)
			assert.Equal(t, tt.kind, kind)
		})
	}
}
