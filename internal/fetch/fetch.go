// Package fetch retrieves raw product pages over plain HTTP. It is the
// PageFetcher collaborator: one attempt per call, bounded timeout,
// block detection, and charset normalization so downstream pattern
// matching always sees UTF-8.
package fetch

import (
	"context"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// maxBodyBytes caps how much of a page is read; retail pages put their
// structured data well inside this.
const maxBodyBytes = 512 * 1024

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Page is a fetched, charset-decoded product page.
type Page struct {
	URL        string
	Body       string
	StatusCode int
}

// Fetcher fetches a single URL and returns its decoded content.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// HTTPFetcher implements Fetcher via net/http.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher with the given overall timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

// Fetch retrieves a URL, rejects blocked or error responses, and
// decodes the body to UTF-8 using the response charset.
func (f *HTTPFetcher) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: create request")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "es-MX,es;q=0.9,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: get")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "fetch: read body")
	}

	if blocked, kind := DetectBlock(resp, raw); blocked {
		return nil, eris.Errorf("fetch: blocked (%s)", kind)
	}
	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("fetch: status %d", resp.StatusCode)
	}

	body, err := decodeCharset(raw, resp.Header.Get("Content-Type"))
	if err != nil {
		// Undecodable bytes are not fatal; fall back to the raw text.
		body = string(raw)
	}

	return &Page{
		URL:        targetURL,
		Body:       body,
		StatusCode: resp.StatusCode,
	}, nil
}

// decodeCharset converts a body to UTF-8 based on the Content-Type
// charset parameter. UTF-8 and unlabeled bodies pass through.
func decodeCharset(raw []byte, contentType string) (string, error) {
	if contentType == "" {
		return string(raw), nil
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return string(raw), nil
	}

	name := strings.ToLower(params["charset"])
	if name == "" || name == "utf-8" || name == "utf8" {
		return string(raw), nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return "", eris.Wrapf(err, "fetch: unknown charset %s", name)
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return "", eris.Wrapf(err, "fetch: decode %s", name)
	}
	return string(decoded), nil
}
