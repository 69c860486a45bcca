package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"github.com/IvndxDB/upc-backend/internal/model"
	"github.com/IvndxDB/upc-backend/pkg/anthropic"
)

// maxPageChars caps how much page text is sent to the engine; prices
// and product data sit near the top of retail pages.
const maxPageChars = 8000

const enhanceSystemText = "You are a product data extractor for Mexican retail pages. Return only a valid JSON object, no markdown. Use null for any field you are not sure about."

const enhancePrompt = `Analyze this product page HTML and extract structured product data.

URL: %s

Data already extracted deterministically:
%s

HTML (truncated):
%s

Your task:
1. Only look for a price if the deterministic price above is null. Never change a non-null deterministic price.
2. Clean up the product title.
3. Identify the seller/store if missing.
4. Extract brand, category, availability, rating, review_count, description when present.
5. Ignore per-unit prices (like "$2.00 por unidad") and struck-through promotional prices; use the current sale price only.

Return JSON:
{"title": "...", "price": 125.50, "currency": "MXN", "seller": "...", "brand": "...", "category": "...", "availability": "in_stock", "rating": 4.5, "review_count": 120, "description": "...", "confidence": "high"}`

const filterSystemText = "You are a shopping results filter for the Mexican market. Return only a valid JSON object, no markdown."

const filterPrompt = `Analyze these search results for the product %q (UPC: %s).

Raw results:
%s

Strict filter:
1. Keep only offers from real stores (Amazon, MercadoLibre, Walmart, pharmacies, Liverpool, Chedraui, Soriana, and similar).
2. Discard coupon sites, price trackers, and PDFs entirely.
3. Extract the current price in MXN; use null when no clear price appears.

Return JSON:
{"offers": [{"title": "...", "price": 150.00, "currency": "MXN", "seller": "...", "link": "https://..."}], "summary": "brief availability summary"}`

// ClaudeEngine implements Engine on top of the Anthropic Messages API.
type ClaudeEngine struct {
	client          anthropic.Client
	modelID         string
	defaultCurrency string
	timeout         time.Duration
}

// NewClaudeEngine creates a Claude-backed extraction engine.
func NewClaudeEngine(client anthropic.Client, modelID, defaultCurrency string, timeout time.Duration) *ClaudeEngine {
	return &ClaudeEngine{
		client:          client,
		modelID:         modelID,
		defaultCurrency: defaultCurrency,
		timeout:         timeout,
	}
}

// EnhanceProduct asks the engine for a structured read of a product
// page. Single attempt; the caller decides what a failure means.
func (e *ClaudeEngine) EnhanceProduct(ctx context.Context, in ProductInput) (*ProductExtraction, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	det, err := json.Marshal(in.Deterministic)
	if err != nil {
		return nil, eris.Wrap(err, "oracle: marshal deterministic result")
	}

	text := truncateText(in.Text, maxPageChars)

	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.modelID,
		MaxTokens: 1024,
		System:    enhanceSystemText,
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(enhancePrompt, in.URL, string(det), text)},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "oracle: enhance product")
	}

	ex, err := parseProductExtraction(resp.Text())
	if err != nil {
		return nil, eris.Wrap(err, "oracle: parse enhancement")
	}
	return ex, nil
}

// FilterOffers asks the engine to turn raw search hits into store
// offers, discarding non-merchant noise.
func (e *ClaudeEngine) FilterOffers(ctx context.Context, q OfferQuery) (*OfferSelection, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.modelID,
		MaxTokens: 2048,
		System:    filterSystemText,
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(filterPrompt, q.Query, q.UPC, formatHits(q.Hits))},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "oracle: filter offers")
	}

	sel, err := parseOfferSelection(resp.Text(), e.defaultCurrency)
	if err != nil {
		return nil, eris.Wrap(err, "oracle: parse offer selection")
	}
	return sel, nil
}

// truncateText cuts s to at most limit bytes without splitting a
// multi-byte rune; the API rejects invalid UTF-8.
func truncateText(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// formatHits renders raw hits as the bullet list the filter prompt
// expects.
func formatHits(hits []model.RawHit) string {
	var b strings.Builder
	for _, h := range hits {
		fmt.Fprintf(&b, "- Title: %s\n  URL: %s\n  Text: %s\n", h.Title, h.Link, h.Snippet)
	}
	return b.String()
}
