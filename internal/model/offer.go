// Package model defines the entities flowing through the price lookup
// pipeline. All values are created fresh per request; nothing here is
// shared across requests.
package model

// Source identifies which extraction stage produced an offer.
type Source string

const (
	SourcePattern  Source = "pattern"
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
)

// Confidence grades how much an offer's price can be trusted.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Offer is a single candidate price/seller/title tuple for a product.
// A nil Price is a valid terminal state ("could not determine"), not an
// error.
type Offer struct {
	Title      string     `json:"title,omitempty"`
	Price      *float64   `json:"price"`
	Currency   string     `json:"currency"`
	Seller     string     `json:"seller,omitempty"`
	Link       string     `json:"link,omitempty"`
	Source     Source     `json:"source"`
	Confidence Confidence `json:"confidence"`
}

// RawHit is a single search result as returned by a search collaborator.
// The pipeline never mutates these.
type RawHit struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// PriceBounds is the plausible price interval used to reject obviously
// wrong extractions. Supplied per request from config, never hardcoded
// inside a stage.
type PriceBounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether p falls inside the bounds (inclusive).
func (b PriceBounds) Contains(p float64) bool {
	return p >= b.Min && p <= b.Max
}

// PriceRange summarizes the prices of the surviving offers.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// AggregateResult is the final pipeline output for multi-offer flows.
// A nil PriceRange means no offer carried a price; it is semantically
// distinct from a zero-valued range.
type AggregateResult struct {
	Offers     []Offer     `json:"offers"`
	PriceRange *PriceRange `json:"price_range,omitempty"`
	Summary    string      `json:"summary,omitempty"`
	Method     string      `json:"method"`
}
