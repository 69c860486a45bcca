// Package pipeline wires the lookup stages together. A lookup is
// best-effort end to end: collaborator failures degrade the answer
// instead of aborting it, and an empty offer list is a valid result.
package pipeline

import (
	"context"
	"strings"

	"github.com/IvndxDB/upc-backend/internal/aggregate"
	"github.com/IvndxDB/upc-backend/internal/dedupe"
	"github.com/IvndxDB/upc-backend/internal/enhance"
	"github.com/IvndxDB/upc-backend/internal/extract"
	"github.com/IvndxDB/upc-backend/internal/fetch"
	"github.com/IvndxDB/upc-backend/internal/model"
	"github.com/IvndxDB/upc-backend/internal/oracle"
	"github.com/IvndxDB/upc-backend/internal/price"
	"github.com/IvndxDB/upc-backend/internal/search"
	"github.com/IvndxDB/upc-backend/internal/shopping"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrBadInput marks a request that names no product at all.
var ErrBadInput = eris.New("pipeline: url or query/upc required")

// ErrNotFound marks a lookup where every consulted source failed and
// no offer was produced. A source that answered with zero offers is a
// valid empty result, not a NotFound.
var ErrNotFound = eris.New("pipeline: no source produced data")

// Request is one product lookup.
type Request struct {
	URL   string `json:"url,omitempty"`
	Query string `json:"query,omitempty"`
	UPC   string `json:"upc,omitempty"`
	UseAI bool   `json:"use_ai,omitempty"`
}

// ProductDetails carries the non-price attributes the AI stage can add
// in the single-page flow.
type ProductDetails struct {
	Brand        string   `json:"brand,omitempty"`
	Category     string   `json:"category,omitempty"`
	Availability string   `json:"availability,omitempty"`
	Description  string   `json:"description,omitempty"`
	Rating       *float64 `json:"rating,omitempty"`
	ReviewCount  *int     `json:"review_count,omitempty"`
}

// Result is the answer for either flow. The top-level fields mirror the
// primary offer so the extension can read the best-effort price and its
// provenance without walking the offers array; the single-page flow
// additionally carries product details.
type Result struct {
	Title      string            `json:"title,omitempty"`
	Price      *float64          `json:"price"`
	Currency   string            `json:"currency"`
	Seller     string            `json:"seller,omitempty"`
	Confidence model.Confidence  `json:"confidence"`
	Offers     []model.Offer     `json:"offers"`
	PriceRange *model.PriceRange `json:"price_range,omitempty"`
	Summary    string            `json:"summary,omitempty"`
	Method     string            `json:"method"`
	Product    *ProductDetails   `json:"product,omitempty"`
}

// setPrimary copies the primary offer into the result's top-level
// fields. The primary offer is the first one carrying a price, falling
// back to the first offer; an empty offer list reports a null price at
// low confidence.
func (r *Result) setPrimary(defaultCurrency string) {
	primary := model.Offer{Currency: defaultCurrency, Confidence: model.ConfidenceLow}
	if len(r.Offers) > 0 {
		primary = r.Offers[0]
		for _, o := range r.Offers {
			if o.Price != nil {
				primary = o
				break
			}
		}
	}
	r.Title = primary.Title
	r.Price = primary.Price
	r.Currency = primary.Currency
	r.Seller = primary.Seller
	r.Confidence = primary.Confidence
}

// Options configures a Pipeline. Engine and Shopper are optional; a
// nil Engine disables AI stages and a nil Shopper skips the shopping
// branch.
type Options struct {
	Fetcher         fetch.Fetcher
	Searcher        search.Provider
	Shopper         shopping.Provider
	Engine          oracle.Engine
	Bounds          model.PriceBounds
	DefaultCurrency string
}

// Pipeline executes product lookups.
type Pipeline struct {
	fetcher  fetch.Fetcher
	searcher search.Provider
	shopper  shopping.Provider
	engine   oracle.Engine
	bounds   model.PriceBounds
	currency string
}

// New creates a Pipeline.
func New(opts Options) *Pipeline {
	return &Pipeline{
		fetcher:  opts.Fetcher,
		searcher: opts.Searcher,
		shopper:  opts.Shopper,
		engine:   opts.Engine,
		bounds:   opts.Bounds,
		currency: opts.DefaultCurrency,
	}
}

// Lookup routes a request to the single-page or query flow.
func (p *Pipeline) Lookup(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.URL) != "" {
		return p.lookupURL(ctx, req)
	}
	if strings.TrimSpace(req.Query) != "" || CleanUPC(req.UPC) != "" {
		return p.lookupQuery(ctx, req)
	}
	return nil, ErrBadInput
}

// lookupURL fetches one product page, extracts a deterministic offer,
// and optionally enhances it. A fetch failure is fatal here because
// there is nothing to fall back to.
func (p *Pipeline) lookupURL(ctx context.Context, req Request) (*Result, error) {
	page, err := p.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: fetch page")
	}

	ex := extract.Extract(page.Body, p.currency)
	det := ex.Offer(req.URL, p.bounds)

	engine := p.engine
	if !req.UseAI {
		engine = nil
	}
	res := enhance.NewOrchestrator(engine).Enhance(ctx, oracle.ProductInput{
		URL:           req.URL,
		Text:          page.Body,
		Deterministic: det,
	}, p.bounds)

	offers := []model.Offer{res.Offer}
	result := &Result{
		Offers:     offers,
		PriceRange: aggregate.Range(offers),
		Method:     res.Method,
		Product:    productDetails(res),
	}
	result.setPrimary(p.currency)
	return result, nil
}

// lookupQuery searches the web (and the shopping grid when wired),
// distills hits into offers, and aggregates them. Branch failures are
// absorbed; only a completely empty request errors.
func (p *Pipeline) lookupQuery(ctx context.Context, req Request) (*Result, error) {
	query := strings.TrimSpace(req.Query)
	upc := CleanUPC(req.UPC)

	var (
		offers  []model.Offer
		summary string
		method  = enhance.MethodPattern
	)

	searchFailed := false
	hits, err := p.searcher.Search(ctx, query, upc)
	if err != nil {
		zap.L().Warn("pipeline: web search failed", zap.Error(err))
		searchFailed = true
		hits = nil
	}

	if len(hits) > 0 {
		offers, summary, method = p.hitsToOffers(ctx, query, upc, hits, req.UseAI)
	}

	shopFailed := false
	if p.shopper != nil {
		shopQuery := strings.TrimSpace(query + " " + upc)
		shopOffers, err := p.shopper.Offers(ctx, shopQuery, p.bounds)
		if err != nil {
			zap.L().Warn("pipeline: shopping search failed", zap.Error(err))
			shopFailed = true
		} else {
			offers = append(offers, shopOffers...)
		}
	}

	// Empty because every consulted source failed is a NotFound; empty
	// because the sources answered with nothing is a valid result.
	if len(offers) == 0 && searchFailed && (p.shopper == nil || shopFailed) {
		return nil, ErrNotFound
	}

	for i := range offers {
		offers[i].Price = price.Validate(offers[i].Price, p.bounds)
		if offers[i].Price == nil {
			offers[i].Confidence = model.ConfidenceLow
		} else if offers[i].Confidence == "" {
			offers[i].Confidence = model.ConfidenceMedium
		}
	}
	offers = dedupe.Dedupe(offers)
	if offers == nil {
		offers = []model.Offer{}
	}

	result := &Result{
		Offers:     offers,
		PriceRange: aggregate.Range(offers),
		Summary:    summary,
		Method:     method,
	}
	result.setPrimary(p.currency)
	return result, nil
}

// hitsToOffers turns raw hits into offers, through the AI filter when
// enabled and through snippet patterns otherwise. An AI failure falls
// back to patterns with a degraded method tag.
func (p *Pipeline) hitsToOffers(ctx context.Context, query, upc string, hits []model.RawHit, useAI bool) ([]model.Offer, string, string) {
	if useAI && p.engine != nil {
		sel, err := p.engine.FilterOffers(ctx, oracle.OfferQuery{
			Query: query,
			UPC:   upc,
			Hits:  hits,
		})
		if err == nil {
			return sel.Offers, sel.Summary, enhance.MethodAIEnhanced
		}
		zap.L().Warn("pipeline: offer filter failed", zap.Error(err))
		return p.patternOffers(hits), "", enhance.MethodFallback
	}
	return p.patternOffers(hits), "", enhance.MethodPattern
}

// patternOffers extracts a price from each hit's title and snippet.
// Hits without a recognizable price are kept at low confidence so the
// client can still show the listing.
func (p *Pipeline) patternOffers(hits []model.RawHit) []model.Offer {
	offers := make([]model.Offer, 0, len(hits))
	for _, h := range hits {
		ex := extract.Extract(h.Title+" "+h.Snippet, p.currency)
		pr := extract.SelectPrice(ex.PriceCandidates, p.bounds)

		conf := model.ConfidenceMedium
		if pr == nil {
			conf = model.ConfidenceLow
		}
		offers = append(offers, model.Offer{
			Title:      h.Title,
			Price:      pr,
			Currency:   p.currency,
			Link:       h.Link,
			Source:     model.SourceFallback,
			Confidence: conf,
		})
	}
	return offers
}

// CleanUPC strips everything but digits from a scanned barcode value.
func CleanUPC(upc string) string {
	var b strings.Builder
	for _, r := range upc {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func productDetails(res enhance.Result) *ProductDetails {
	d := ProductDetails{
		Brand:        res.Brand,
		Category:     res.Category,
		Availability: res.Availability,
		Description:  res.Description,
		Rating:       res.Rating,
		ReviewCount:  res.ReviewCount,
	}
	if d == (ProductDetails{}) {
		return nil
	}
	return &d
}
