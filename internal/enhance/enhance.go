// Package enhance reconciles deterministic extraction with the AI
// engine's read of the same page. This is the one stage that touches an
// unreliable collaborator: a misbehaving engine degrades quality here,
// never availability.
package enhance

import (
	"context"

	"go.uber.org/zap"

	"github.com/IvndxDB/upc-backend/internal/model"
	"github.com/IvndxDB/upc-backend/internal/oracle"
	"github.com/IvndxDB/upc-backend/internal/price"
)

// Method names reported to the client, describing which sources
// contributed to the final product result.
const (
	MethodPattern    = "pattern"
	MethodAIEnhanced = "ai_enhanced"
	MethodFallback   = "pattern_fallback" // engine failed, deterministic data only
)

// Result is the reconciled product view. Offer carries the core fields;
// the rest are engine-only extras that the deterministic stage never
// produces.
type Result struct {
	Offer        model.Offer
	Brand        string
	Category     string
	Availability string
	Description  string
	Rating       *float64
	ReviewCount  *int
	Method       string
}

// Orchestrator decides whether to consult the engine and how to merge
// its answer with the deterministic offer.
type Orchestrator struct {
	engine oracle.Engine // nil disables enhancement
}

// NewOrchestrator creates an orchestrator. A nil engine means the
// deterministic result is always final.
func NewOrchestrator(engine oracle.Engine) *Orchestrator {
	return &Orchestrator{engine: engine}
}

// Enhance merges the engine's output into the deterministic offer under
// strict precedence:
//
//  1. A validated deterministic price is authoritative; the engine can
//     only fill fields the pattern stage left empty.
//  2. An engine price is accepted only after passing bounds validation.
//  3. Engine failure falls back to the deterministic offer verbatim
//     with degraded confidence; it is never surfaced as an error.
//  4. Confidence: high for a deterministic price, medium for an engine
//     price, low when neither stage found one.
func (o *Orchestrator) Enhance(ctx context.Context, in oracle.ProductInput, bounds model.PriceBounds) Result {
	det := in.Deterministic

	if o.engine == nil {
		return Result{Offer: tagConfidence(det), Method: MethodPattern}
	}

	ex, err := o.engine.EnhanceProduct(ctx, in)
	if err != nil {
		zap.L().Warn("enhance: engine failed, using deterministic result",
			zap.String("url", in.URL),
			zap.Error(err),
		)
		fallback := det
		fallback.Confidence = degradedConfidence(det.Price)
		return Result{Offer: fallback, Method: MethodFallback}
	}

	merged := det
	// The engine's title is a cleaned-up version of the page title; prefer
	// it whenever it produced one.
	if ex.Title != "" {
		merged.Title = ex.Title
	}
	if merged.Seller == "" {
		merged.Seller = ex.Seller
	}
	if ex.Currency != "" {
		merged.Currency = ex.Currency
	}

	if det.Price == nil {
		if p := price.Validate(ex.Price, bounds); p != nil {
			merged.Price = p
			merged.Source = model.SourceAI
		}
	}
	merged = tagConfidence(merged)

	return Result{
		Offer:        merged,
		Brand:        ex.Brand,
		Category:     ex.Category,
		Availability: ex.Availability,
		Description:  ex.Description,
		Rating:       ex.Rating,
		ReviewCount:  ex.ReviewCount,
		Method:       MethodAIEnhanced,
	}
}

// tagConfidence applies the confidence ladder to a merged offer.
func tagConfidence(o model.Offer) model.Offer {
	switch {
	case o.Price == nil:
		o.Confidence = model.ConfidenceLow
	case o.Source == model.SourceAI:
		o.Confidence = model.ConfidenceMedium
	default:
		o.Confidence = model.ConfidenceHigh
	}
	return o
}

// degradedConfidence is the post-failure marker: the deterministic
// price is still trustworthy data, but the pass as a whole is degraded.
func degradedConfidence(p *float64) model.Confidence {
	if p == nil {
		return model.ConfidenceLow
	}
	return model.ConfidenceMedium
}
