// Package duckduckgo queries the DuckDuckGo HTML endpoint. The HTML
// endpoint needs no API key and serves static markup, which is enough
// for harvesting retail result links.
package duckduckgo

import (
	"context"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://html.duckduckgo.com/html/"

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Client performs DuckDuckGo searches.
type Client interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// SearchResult is one organic result from the HTML endpoint.
type SearchResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default endpoint URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRegion sets the DuckDuckGo region code (kl parameter).
func WithRegion(region string) Option {
	return func(c *httpClient) {
		c.region = region
	}
}

type httpClient struct {
	baseURL string
	region  string
	http    *http.Client
}

// NewClient creates a DuckDuckGo HTML client. The default region is
// mx-es so results favor Mexican retailers.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		region:  "mx-es",
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// The HTML endpoint renders each result as a result__a anchor followed
// by a result__snippet. Attribute order is stable on this endpoint.
var (
	resultRe  = regexp.MustCompile(`(?is)<a[^>]+class="result__a"[^>]+href="([^"]+)"[^>]*>(.*?)</a>`)
	snippetRe = regexp.MustCompile(`(?is)<a[^>]+class="result__snippet"[^>]*>(.*?)</a>`)
	tagRe     = regexp.MustCompile(`<[^>]+>`)
)

func (c *httpClient) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("kl", c.region)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "duckduckgo: create request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "duckduckgo: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "duckduckgo: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("duckduckgo: unexpected status %d", resp.StatusCode)
	}

	return parseResults(string(body), maxResults), nil
}

func parseResults(page string, maxResults int) []SearchResult {
	anchors := resultRe.FindAllStringSubmatch(page, -1)
	snippets := snippetRe.FindAllStringSubmatch(page, -1)

	results := make([]SearchResult, 0, len(anchors))
	for i, m := range anchors {
		if maxResults > 0 && len(results) >= maxResults {
			break
		}
		link := decodeLink(m[1])
		if link == "" {
			continue
		}
		r := SearchResult{
			Title: cleanText(m[2]),
			Link:  link,
		}
		if i < len(snippets) {
			r.Snippet = cleanText(snippets[i][1])
		}
		results = append(results, r)
	}
	return results
}

// decodeLink unwraps DuckDuckGo's redirect links (//duckduckgo.com/l/?uddg=...)
// into the target URL.
func decodeLink(href string) string {
	href = html.UnescapeString(href)
	if !strings.Contains(href, "uddg=") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

func cleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(tagRe.ReplaceAllString(s, "")))
}
