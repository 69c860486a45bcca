package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvndxDB/upc-backend/internal/model"
)

var bounds = model.PriceBounds{Min: 10, Max: 100000}

const productHTML = `
<html>
<head><title>Paracetamol 500mg &amp; Friends</title></head>
<body>
<script type="application/ld+json">
{"@type":"Product","offers":{"priceCurrency":"MXN","price":"199.99"},"seller":"Farmacia Central"}
</script>
<span class="unit-price">$2.00 por unidad</span>
</body>
</html>`

func TestExtract_StructuredData(t *testing.T) {
	t.Parallel()

	ex := Extract(productHTML, "MXN")

	assert.Equal(t, "Paracetamol 500mg & Friends", ex.Title)
	assert.Equal(t, "Farmacia Central", ex.Seller)
	assert.Equal(t, "MXN", ex.Currency)
	require.NotEmpty(t, ex.PriceCandidates)
	assert.Equal(t, "199.99", ex.PriceCandidates[0])
}

func TestExtract_StructuredPatternBeatsDecoy(t *testing.T) {
	t.Parallel()

	// The $2.00 unit-price decoy matches a lower-priority pattern and is
	// out of bounds anyway; the structured-data price must win.
	ex := Extract(productHTML, "MXN")
	p := SelectPrice(ex.PriceCandidates, bounds)

	require.NotNil(t, p)
	assert.InDelta(t, 199.99, *p, 1e-9)
}

func TestExtract_CurrencyDefault(t *testing.T) {
	t.Parallel()

	ex := Extract(`<p>precio: $150.00</p>`, "MXN")
	assert.Equal(t, "MXN", ex.Currency)

	ex = Extract(`{"priceCurrency":"USD","price":"20.00"}`, "MXN")
	assert.Equal(t, "USD", ex.Currency)
}

func TestExtract_DisplayMarkup(t *testing.T) {
	t.Parallel()

	ex := Extract(`<div data-price="349.50">MXN $349.50</div>`, "MXN")
	require.NotEmpty(t, ex.PriceCandidates)
	assert.Equal(t, "349.50", ex.PriceCandidates[0])
}

func TestSelectPrice_SkipsInvalidCandidates(t *testing.T) {
	t.Parallel()

	// First candidate is out of bounds, second malformed, third valid.
	p := SelectPrice([]string{"2.00", "..", "450.00"}, bounds)
	require.NotNil(t, p)
	assert.InDelta(t, 450.0, *p, 1e-9)
}

func TestSelectPrice_NoCandidates(t *testing.T) {
	t.Parallel()

	assert.Nil(t, SelectPrice(nil, bounds))
	assert.Nil(t, SelectPrice([]string{"1.00", "0.50"}, bounds))
}

func TestExtraction_Offer(t *testing.T) {
	t.Parallel()

	ex := Extract(productHTML, "MXN")
	o := ex.Offer("https://tienda.example.mx/p/1", bounds)

	require.NotNil(t, o.Price)
	assert.InDelta(t, 199.99, *o.Price, 1e-9)
	assert.Equal(t, model.SourcePattern, o.Source)
	assert.Equal(t, model.ConfidenceHigh, o.Confidence)
	assert.Equal(t, "https://tienda.example.mx/p/1", o.Link)
}

func TestExtraction_Offer_NoPrice(t *testing.T) {
	t.Parallel()

	ex := Extract(`<title>Mystery Item</title>`, "MXN")
	o := ex.Offer("", bounds)

	assert.Nil(t, o.Price)
	assert.Equal(t, model.ConfidenceLow, o.Confidence)
}
