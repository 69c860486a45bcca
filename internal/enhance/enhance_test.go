package enhance

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvndxDB/upc-backend/internal/model"
	"github.com/IvndxDB/upc-backend/internal/oracle"
)

var bounds = model.PriceBounds{Min: 10, Max: 100000}

// fakeEngine returns a fixed extraction or error.
type fakeEngine struct {
	ex  *oracle.ProductExtraction
	err error
}

func (f *fakeEngine) EnhanceProduct(context.Context, oracle.ProductInput) (*oracle.ProductExtraction, error) {
	return f.ex, f.err
}

func (f *fakeEngine) FilterOffers(context.Context, oracle.OfferQuery) (*oracle.OfferSelection, error) {
	return nil, eris.New("not used")
}

func TestEnhance_DeterministicPriceIsAuthoritative(t *testing.T) {
	t.Parallel()

	// Engine disagrees about the price; its value must be ignored.
	eng := &fakeEngine{ex: &oracle.ProductExtraction{
		Title: "Better Title",
		Price: model.Float(999),
	}}
	o := NewOrchestrator(eng)

	det := model.Offer{Price: model.Float(199.99), Currency: "MXN", Source: model.SourcePattern}
	res := o.Enhance(context.Background(), oracle.ProductInput{Deterministic: det}, bounds)

	require.NotNil(t, res.Offer.Price)
	assert.InDelta(t, 199.99, *res.Offer.Price, 1e-9)
	assert.Equal(t, model.SourcePattern, res.Offer.Source)
	assert.Equal(t, model.ConfidenceHigh, res.Offer.Confidence)
	assert.Equal(t, "Better Title", res.Offer.Title, "engine still fills non-price fields")
	assert.Equal(t, MethodAIEnhanced, res.Method)
}

func TestEnhance_EngineFillsMissingPrice(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{ex: &oracle.ProductExtraction{Price: model.Float(450)}}
	o := NewOrchestrator(eng)

	res := o.Enhance(context.Background(), oracle.ProductInput{
		Deterministic: model.Offer{Currency: "MXN"},
	}, bounds)

	require.NotNil(t, res.Offer.Price)
	assert.InDelta(t, 450.0, *res.Offer.Price, 1e-9)
	assert.Equal(t, model.SourceAI, res.Offer.Source)
	assert.Equal(t, model.ConfidenceMedium, res.Offer.Confidence)
}

func TestEnhance_EnginePriceMustPassValidation(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{ex: &oracle.ProductExtraction{Price: model.Float(2)}} // below min
	o := NewOrchestrator(eng)

	res := o.Enhance(context.Background(), oracle.ProductInput{
		Deterministic: model.Offer{Currency: "MXN"},
	}, bounds)

	assert.Nil(t, res.Offer.Price)
	assert.Equal(t, model.ConfidenceLow, res.Offer.Confidence)
}

func TestEnhance_EngineFailureIsAbsorbed(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{err: eris.New("timeout")}
	o := NewOrchestrator(eng)

	t.Run("with deterministic price", func(t *testing.T) {
		det := model.Offer{Price: model.Float(100), Currency: "MXN", Source: model.SourcePattern}
		res := o.Enhance(context.Background(), oracle.ProductInput{Deterministic: det}, bounds)

		require.NotNil(t, res.Offer.Price)
		assert.InDelta(t, 100.0, *res.Offer.Price, 1e-9)
		assert.Equal(t, model.ConfidenceMedium, res.Offer.Confidence, "degraded marker")
		assert.Equal(t, MethodFallback, res.Method)
	})

	t.Run("without deterministic price", func(t *testing.T) {
		res := o.Enhance(context.Background(), oracle.ProductInput{
			Deterministic: model.Offer{Currency: "MXN"},
		}, bounds)

		assert.Nil(t, res.Offer.Price)
		assert.Equal(t, model.ConfidenceLow, res.Offer.Confidence)
		assert.Equal(t, MethodFallback, res.Method)
	})
}

func TestEnhance_NilEngine(t *testing.T) {
	t.Parallel()

	o := NewOrchestrator(nil)
	det := model.Offer{Price: model.Float(50), Currency: "MXN", Source: model.SourcePattern}

	res := o.Enhance(context.Background(), oracle.ProductInput{Deterministic: det}, bounds)

	assert.Equal(t, MethodPattern, res.Method)
	assert.Equal(t, model.ConfidenceHigh, res.Offer.Confidence)
}

func TestEnhance_SellerOnlyFilledWhenMissing(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{ex: &oracle.ProductExtraction{Seller: "Oracle Store"}}
	o := NewOrchestrator(eng)

	res := o.Enhance(context.Background(), oracle.ProductInput{
		Deterministic: model.Offer{Seller: "Pattern Store", Currency: "MXN"},
	}, bounds)
	assert.Equal(t, "Pattern Store", res.Offer.Seller)

	res = o.Enhance(context.Background(), oracle.ProductInput{
		Deterministic: model.Offer{Currency: "MXN"},
	}, bounds)
	assert.Equal(t, "Oracle Store", res.Offer.Seller)
}
