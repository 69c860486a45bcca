package price

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvndxDB/upc-backend/internal/model"
)

var bounds = model.PriceBounds{Min: 10, Max: 100000}

func TestNormalize_LocaleDisambiguation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want float64
	}{
		{"1.234,56", 1234.56},
		{"1,234.56", 1234.56},
		{"199.99", 199.99},
		{"1234,56", 1234.56},
		{"2.500", 2500},
		{"2,500", 2500},
		{"1.234.567,89", 1234567.89},
		{"  125.50 ", 125.50},
		{"99", 99},
	}

	for _, tt := range tests {
		got := Normalize(tt.raw, bounds)
		require.NotNil(t, got, "Normalize(%q)", tt.raw)
		assert.InDelta(t, tt.want, *got, 1e-9, "Normalize(%q)", tt.raw)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"1.234,56", "1,234.56", "199.99", "2500", "88.5"} {
		once := Normalize(raw, bounds)
		require.NotNil(t, once)

		again := Normalize(strconv.FormatFloat(*once, 'f', -1, 64), bounds)
		require.NotNil(t, again)
		assert.Equal(t, *once, *again, "raw %q", raw)
	}
}

func TestNormalize_Invalid(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "   ", "abc", "12a", "$"} {
		assert.Nil(t, Normalize(raw, bounds), "raw %q", raw)
	}
}

func TestNormalize_OutOfBounds(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Normalize("2.00", bounds), "below min")
	assert.Nil(t, Normalize("999999", bounds), "above max")
	assert.NotNil(t, Normalize("10", bounds), "min is inclusive")
	assert.NotNil(t, Normalize("100000", bounds), "max is inclusive")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Validate(nil, bounds))
	assert.Nil(t, Validate(model.Float(9.99), bounds))
	assert.Nil(t, Validate(model.Float(100000.01), bounds))

	in := model.Float(150)
	got := Validate(in, bounds)
	require.NotNil(t, got)
	assert.Equal(t, 150.0, *got)
}
