// Package serpapi wraps the SerpAPI Google Shopping engines. Calls are
// rate limited client-side because SerpAPI meters by the hour and a
// single lookup can fan out into several product-page requests.
package serpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://serpapi.com/search.json"

// Client performs SerpAPI shopping operations.
type Client interface {
	Shopping(ctx context.Context, query string) (*ShoppingResponse, error)
	Product(ctx context.Context, productID string) (*ProductResponse, error)
}

// ShoppingResponse is the google_shopping engine response.
type ShoppingResponse struct {
	ShoppingResults []ShoppingResult `json:"shopping_results"`
}

// ShoppingResult is one listing from the shopping grid.
type ShoppingResult struct {
	Title          string  `json:"title"`
	Link           string  `json:"link"`
	ProductLink    string  `json:"product_link"`
	ProductID      string  `json:"product_id"`
	Source         string  `json:"source"`
	Price          string  `json:"price"`
	ExtractedPrice float64 `json:"extracted_price"`
}

// ProductResponse is the google_product engine response.
type ProductResponse struct {
	SellersResults SellersResults `json:"sellers_results"`
}

// SellersResults lists the merchants carrying a product.
type SellersResults struct {
	OnlineSellers []OnlineSeller `json:"online_sellers"`
}

// OnlineSeller is one merchant offer on a product page.
type OnlineSeller struct {
	Name           string  `json:"name"`
	Link           string  `json:"link"`
	BasePrice      string  `json:"base_price"`
	TotalPrice     string  `json:"total_price"`
	ExtractedPrice float64 `json:"base_price_extracted"`
}

// APIError is a non-200 SerpAPI reply.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("serpapi: status %d: %s", e.StatusCode, e.Message)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
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

// WithRateLimit overrides the default request rate.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a SerpAPI client. The default limiter allows one
// request per second with a burst of three.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 20 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(1), 3),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Shopping(ctx context.Context, query string) (*ShoppingResponse, error) {
	params := url.Values{}
	params.Set("engine", "google_shopping")
	params.Set("q", query)
	params.Set("gl", "mx")
	params.Set("hl", "es")

	var result ShoppingResponse
	if err := c.get(ctx, params, &result); err != nil {
		return nil, eris.Wrap(err, "serpapi: shopping search")
	}
	return &result, nil
}

func (c *httpClient) Product(ctx context.Context, productID string) (*ProductResponse, error) {
	params := url.Values{}
	params.Set("engine", "google_product")
	params.Set("product_id", productID)
	params.Set("offers", "1")
	params.Set("gl", "mx")
	params.Set("hl", "es")

	var result ProductResponse
	if err := c.get(ctx, params, &result); err != nil {
		return nil, eris.Wrap(err, "serpapi: product lookup")
	}
	return &result, nil
}

func (c *httpClient) get(ctx context.Context, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "rate limit wait")
	}

	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response")
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "unmarshal response")
	}
	return nil
}
