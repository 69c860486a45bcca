package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvndxDB/upc-backend/internal/model"
)

func TestDedupe_FirstSeenWinsPerMerchant(t *testing.T) {
	t.Parallel()

	offers := []model.Offer{
		{Seller: "Amazon México", Price: model.Float(100)},
		{Seller: "Walmart", Price: model.Float(95)},
		{Seller: "amazon", Price: model.Float(90)},
		{Seller: "Soriana", Price: model.Float(110)},
		{Seller: "Bodega Aurrera", Price: model.Float(85)}, // alias of walmart
	}

	got := Dedupe(offers)

	require.Len(t, got, 3)
	assert.Equal(t, "Amazon México", got[0].Seller)
	assert.Equal(t, "Walmart", got[1].Seller)
	assert.Equal(t, "Soriana", got[2].Seller)
}

func TestDedupe_DomainFallback(t *testing.T) {
	t.Parallel()

	offers := []model.Offer{
		{Link: "https://www.amazon.com.mx/dp/B01"},
		{Link: "https://tienda.amazon.com.mx/dp/B02"},
		{Link: "https://www.liverpool.com.mx/p/3"},
	}

	got := Dedupe(offers)

	require.Len(t, got, 2)
	assert.Equal(t, "https://www.amazon.com.mx/dp/B01", got[0].Link)
	assert.Equal(t, "https://www.liverpool.com.mx/p/3", got[1].Link)
}

func TestDedupe_SellerBeatsLink(t *testing.T) {
	t.Parallel()

	// Same seller through different storefront domains collapses.
	offers := []model.Offer{
		{Seller: "Mercado Libre", Link: "https://articulo.mercadolibre.com.mx/1"},
		{Seller: "MercadoLibre", Link: "https://www.mercadolibre.com.mx/2"},
	}

	assert.Len(t, Dedupe(offers), 1)
}

func TestDedupe_Stable(t *testing.T) {
	t.Parallel()

	offers := []model.Offer{
		{Seller: "A"}, {Seller: "B"}, {Seller: "A"}, {Seller: "C"}, {Seller: "B"},
	}

	first := Dedupe(offers)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Dedupe(offers))
	}
	require.Len(t, first, 3)
}

func TestDedupe_KeylessOffersKept(t *testing.T) {
	t.Parallel()

	offers := []model.Offer{{Title: "one"}, {Title: "two"}}
	assert.Len(t, Dedupe(offers), 2)
}

func TestDedupe_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	offers := []model.Offer{{Seller: "A"}, {Seller: "A"}}
	_ = Dedupe(offers)
	assert.Equal(t, "A", offers[1].Seller)
	assert.Len(t, offers, 2)
}

func TestMerchantKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		offer model.Offer
		want  string
	}{
		{model.Offer{Seller: "Walmart Súper"}, "walmart"},
		{model.Offer{Seller: "Sam's Club"}, "walmart"},
		{model.Offer{Link: "https://www.chedraui.com.mx/p/9"}, "chedraui"},
		{model.Offer{Link: "https://example.co.uk/x"}, "example.co.uk"},
		{model.Offer{Link: "https://shop.example.com/x"}, "example.com"},
		{model.Offer{}, ""},
		{model.Offer{Link: "::bad::"}, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MerchantKey(tt.offer))
	}
}
