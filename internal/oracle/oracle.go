// Package oracle defines the AI text-analysis collaborator used to fill
// gaps the deterministic extraction stage left behind. The engine's
// output is unverified free-form JSON; everything it returns is parsed
// into typed values with mistyped fields nulled, and its prices are
// re-validated downstream before use.
package oracle

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/IvndxDB/upc-backend/internal/model"
)

// ProductInput is the context handed to the engine for a single product
// page enhancement pass.
type ProductInput struct {
	URL           string
	Text          string
	Deterministic model.Offer // what the pattern stage already found
}

// ProductExtraction is the typed result of a product enhancement pass.
// Optional fields are nil/empty when the engine did not report them or
// reported them with the wrong type.
type ProductExtraction struct {
	Title        string
	Price        *float64
	Currency     string
	Seller       string
	Brand        string
	Category     string
	Availability string
	Rating       *float64
	ReviewCount  *int
	Description  string
	Confidence   model.Confidence
}

// OfferQuery is the context for filtering raw search hits into offers.
type OfferQuery struct {
	Query string
	UPC   string
	Hits  []model.RawHit
}

// OfferSelection holds the offers the engine judged to be real-store
// listings, plus a short availability summary.
type OfferSelection struct {
	Offers  []model.Offer
	Summary string
}

// Engine is the text-extraction oracle. Implementations make a single
// attempt per call; callers absorb failures and fall back to
// deterministic data.
type Engine interface {
	EnhanceProduct(ctx context.Context, in ProductInput) (*ProductExtraction, error)
	FilterOffers(ctx context.Context, q OfferQuery) (*OfferSelection, error)
}

// cleanJSON strips markdown fences and any prose around the first JSON
// object in an LLM response.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

// parseProductExtraction decodes the engine's raw JSON into a typed
// extraction, nulling anything missing or mistyped.
func parseProductExtraction(text string) (*ProductExtraction, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(cleanJSON(text)), &raw); err != nil {
		return nil, err
	}

	ex := &ProductExtraction{
		Title:        asString(raw["title"]),
		Currency:     strings.ToUpper(asString(raw["currency"])),
		Seller:       asString(raw["seller"]),
		Brand:        asString(raw["brand"]),
		Category:     asString(raw["category"]),
		Availability: asString(raw["availability"]),
		Description:  asString(raw["description"]),
		Price:        asFloat(raw["price"]),
		Rating:       asFloat(raw["rating"]),
		Confidence:   asConfidence(raw["confidence"]),
	}
	if n := asFloat(raw["review_count"]); n != nil {
		count := int(*n)
		ex.ReviewCount = &count
	}
	return ex, nil
}

// parseOfferSelection decodes the engine's offer-filter JSON. Offers
// with mistyped fields keep whatever parsed; a missing offers array
// yields an empty selection, not an error.
func parseOfferSelection(text, defaultCurrency string) (*OfferSelection, error) {
	var raw struct {
		Offers  []json.RawMessage `json:"offers"`
		Summary string            `json:"summary"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &raw); err != nil {
		return nil, err
	}

	sel := &OfferSelection{Summary: raw.Summary}
	for _, item := range raw.Offers {
		var m map[string]any
		if err := json.Unmarshal(item, &m); err != nil {
			continue
		}
		o := model.Offer{
			Title:    asString(m["title"]),
			Seller:   asString(m["seller"]),
			Link:     asString(m["link"]),
			Currency: strings.ToUpper(asString(m["currency"])),
			Price:    asFloat(m["price"]),
			Source:   model.SourceAI,
		}
		if o.Currency == "" {
			o.Currency = defaultCurrency
		}
		// Engine prices are medium at best; no price is low.
		o.Confidence = model.ConfidenceMedium
		if o.Price == nil {
			o.Confidence = model.ConfidenceLow
		}
		sel.Offers = append(sel.Offers, o)
	}
	return sel, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func asFloat(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case string:
		// Engines occasionally quote numbers; accept plain decimals only.
		var f float64
		if err := json.Unmarshal([]byte(n), &f); err == nil {
			return &f
		}
	}
	return nil
}

func asConfidence(v any) model.Confidence {
	switch model.Confidence(asString(v)) {
	case model.ConfidenceHigh:
		return model.ConfidenceHigh
	case model.ConfidenceMedium:
		return model.ConfidenceMedium
	case model.ConfidenceLow:
		return model.ConfidenceLow
	}
	return ""
}
