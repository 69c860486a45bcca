// Package extract pulls candidate product data out of raw page or
// snippet text with ordered regex rules. It is a pure text stage: no
// network, no AI, fully unit-testable.
package extract

import (
	"html"
	"regexp"
	"strings"

	"github.com/IvndxDB/upc-backend/internal/model"
	"github.com/IvndxDB/upc-backend/internal/price"
)

// pricePatterns are tried in priority order: structured-data JSON fields
// first (least likely to be a decoy), then display markup, then generic
// currency amounts, then keyword-adjacent numbers. Candidate order
// follows this declaration order.
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)"offers"\s*:\s*\{[^}]*?"price"\s*:\s*"?([0-9.,]+)"?`),
	regexp.MustCompile(`(?i)"priceAmount"\s*:\s*"?([0-9.,]+)"?`),
	regexp.MustCompile(`(?i)"currentPrice"\s*:\s*"?([0-9.,]+)"?`),
	regexp.MustCompile(`(?i)"salePrice"\s*:\s*"?([0-9.,]+)"?`),
	regexp.MustCompile(`(?i)data-price\s*=\s*"?([0-9.,]+)"?`),
	regexp.MustCompile(`\$\s*([0-9]{1,3}(?:[.,][0-9]{3})*(?:[.,][0-9]{2})?)`),
	regexp.MustCompile(`(?i)(?:precio|price)["\s:]*\$?\s*([0-9.,]+)`),
}

var (
	titleRe    = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	sellerRe   = regexp.MustCompile(`(?i)"seller"\s*:\s*"?([^",}{]+)"?`)
	currencyRe = regexp.MustCompile(`(?i)"priceCurrency"\s*:\s*"?([A-Z]{3})"?`)
)

// Extraction is the deterministic output of a pattern pass over one
// text blob. PriceCandidates keeps every match in rule-priority order;
// selection happens later against bounds.
type Extraction struct {
	Title           string
	Seller          string
	Currency        string
	PriceCandidates []string
}

// Extract applies all extraction rules against text. Currency falls back
// to defaultCurrency when no 3-letter code is present.
func Extract(text, defaultCurrency string) Extraction {
	ex := Extraction{Currency: defaultCurrency}

	if m := titleRe.FindStringSubmatch(text); m != nil {
		ex.Title = strings.TrimSpace(html.UnescapeString(m[1]))
	}
	if m := sellerRe.FindStringSubmatch(text); m != nil {
		ex.Seller = strings.TrimSpace(m[1])
	}
	if m := currencyRe.FindStringSubmatch(text); m != nil {
		ex.Currency = strings.ToUpper(strings.TrimSpace(m[1]))
	}

	for _, re := range pricePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			ex.PriceCandidates = append(ex.PriceCandidates, m[1])
		}
	}

	return ex
}

// SelectPrice walks the candidates in declaration order and returns the
// first one that normalizes to an in-bounds value, or nil when none
// does. Ties break by order, never by value.
func SelectPrice(candidates []string, bounds model.PriceBounds) *float64 {
	for _, c := range candidates {
		if p := price.Normalize(c, bounds); p != nil {
			return p
		}
	}
	return nil
}

// Offer builds a deterministic offer from an extraction, selecting and
// validating the price against bounds. The returned offer owns its data;
// the extraction is not retained.
func (e Extraction) Offer(link string, bounds model.PriceBounds) model.Offer {
	o := model.Offer{
		Title:    e.Title,
		Seller:   e.Seller,
		Currency: e.Currency,
		Link:     link,
		Source:   model.SourcePattern,
	}
	o.Price = SelectPrice(e.PriceCandidates, bounds)
	if o.Price != nil {
		o.Confidence = model.ConfidenceHigh
	} else {
		o.Confidence = model.ConfidenceLow
	}
	return o
}
