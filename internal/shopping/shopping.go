// Package shopping collects merchant offers from Google Shopping via
// SerpAPI. Unlike web search, the shopping grid already carries
// structured prices, so this collaborator emits offers directly.
package shopping

import (
	"context"
	"strings"
	"sync"

	"github.com/IvndxDB/upc-backend/internal/model"
	"github.com/IvndxDB/upc-backend/internal/price"
	"github.com/IvndxDB/upc-backend/pkg/serpapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxProductExpansions caps how many grid listings get their seller
// list pulled; each expansion is a separate SerpAPI request.
const maxProductExpansions = 2

// Provider finds structured merchant offers for a product query.
type Provider interface {
	Offers(ctx context.Context, query string, bounds model.PriceBounds) ([]model.Offer, error)
}

// SerpAPI implements Provider on top of the SerpAPI shopping engines.
type SerpAPI struct {
	client   serpapi.Client
	currency string
}

// NewSerpAPI creates a SerpAPI-backed shopping provider. Offers with
// no stated currency are tagged with defaultCurrency.
func NewSerpAPI(client serpapi.Client, defaultCurrency string) *SerpAPI {
	return &SerpAPI{client: client, currency: defaultCurrency}
}

// Offers runs a shopping search, expands the first few product pages
// into per-seller offers, and returns everything deduplicated by link.
// Prices outside bounds are dropped from individual offers but the
// offer itself survives with a nil price.
func (s *SerpAPI) Offers(ctx context.Context, query string, bounds model.PriceBounds) ([]model.Offer, error) {
	resp, err := s.client.Shopping(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "shopping: grid search")
	}

	offers := make([]model.Offer, 0, len(resp.ShoppingResults))
	productIDs := make([]string, 0, maxProductExpansions)

	for _, r := range resp.ShoppingResults {
		offers = append(offers, s.gridOffer(r, bounds))
		if r.ProductID != "" && len(productIDs) < maxProductExpansions {
			productIDs = append(productIDs, r.ProductID)
		}
	}

	sellerOffers := s.expandProducts(ctx, productIDs, bounds)
	offers = append(offers, sellerOffers...)

	return dedupeByLink(offers), nil
}

func (s *SerpAPI) gridOffer(r serpapi.ShoppingResult, bounds model.PriceBounds) model.Offer {
	link := r.Link
	if link == "" {
		link = r.ProductLink
	}

	p := s.resolvePrice(r.ExtractedPrice, r.Price, bounds)
	conf := model.ConfidenceHigh
	if p == nil {
		conf = model.ConfidenceLow
	}

	return model.Offer{
		Title:      strings.TrimSpace(r.Title),
		Price:      p,
		Currency:   s.currency,
		Seller:     strings.TrimSpace(r.Source),
		Link:       link,
		Source:     model.SourcePattern,
		Confidence: conf,
	}
}

// expandProducts fetches seller lists for the given product IDs
// concurrently. A failed expansion only costs its own sellers.
func (s *SerpAPI) expandProducts(ctx context.Context, productIDs []string, bounds model.PriceBounds) []model.Offer {
	if len(productIDs) == 0 {
		return nil
	}

	var (
		mu     sync.Mutex
		offers []model.Offer
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxProductExpansions)

	for _, id := range productIDs {
		id := id
		g.Go(func() error {
			resp, err := s.client.Product(gctx, id)
			if err != nil {
				zap.L().Warn("shopping: product expansion failed",
					zap.String("product_id", id),
					zap.Error(err))
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			for _, seller := range resp.SellersResults.OnlineSellers {
				offers = append(offers, s.sellerOffer(seller, bounds))
			}
			return nil
		})
	}
	_ = g.Wait()

	return offers
}

func (s *SerpAPI) sellerOffer(seller serpapi.OnlineSeller, bounds model.PriceBounds) model.Offer {
	p := s.resolvePrice(seller.ExtractedPrice, seller.BasePrice, bounds)
	conf := model.ConfidenceHigh
	if p == nil {
		conf = model.ConfidenceLow
	}

	return model.Offer{
		Price:      p,
		Currency:   s.currency,
		Seller:     strings.TrimSpace(seller.Name),
		Link:       seller.Link,
		Source:     model.SourcePattern,
		Confidence: conf,
	}
}

// resolvePrice prefers the API's pre-extracted numeric price and falls
// back to normalizing the display string.
func (s *SerpAPI) resolvePrice(extracted float64, display string, bounds model.PriceBounds) *float64 {
	if extracted > 0 {
		if p := price.Validate(model.Float(extracted), bounds); p != nil {
			return p
		}
	}
	cleaned := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(display), "$"))
	return price.Normalize(cleaned, bounds)
}

// dedupeByLink keeps the first offer per link. Offers without a link
// are kept as-is.
func dedupeByLink(offers []model.Offer) []model.Offer {
	seen := make(map[string]struct{}, len(offers))
	out := make([]model.Offer, 0, len(offers))
	for _, o := range offers {
		if o.Link == "" {
			out = append(out, o)
			continue
		}
		if _, ok := seen[o.Link]; ok {
			continue
		}
		seen[o.Link] = struct{}{}
		out = append(out, o)
	}
	return out
}
