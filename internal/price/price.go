// Package price normalizes heterogeneous price strings into validated
// decimal values. Parse failures and implausible values both come back
// as nil; false prices are worse than missing ones for the extension
// client, so out-of-range values are dropped rather than flagged.
package price

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/IvndxDB/upc-backend/internal/model"
)

// thousandsSep matches a '.' or ',' used as a thousands separator:
// followed by exactly three digits at a token boundary ("1.234",
// "1,234.56") but not a two-digit decimal tail ("19.99", "1234,56").
var thousandsSep = regexp.MustCompile(`[.,](?:\d{3}\b)`)

// Normalize parses a raw price string into a decimal value, or nil when
// the string does not parse or the result falls outside bounds.
//
// Separator disambiguation: a separator followed by exactly three digits
// at a token boundary is a thousands separator and is removed; any
// remaining ',' is the decimal separator. Handles both "1.234,56" and
// "1,234.56". Idempotent: normalizing an already-normalized decimal
// string yields the same value.
func Normalize(raw string, bounds model.PriceBounds) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	s = thousandsSep.ReplaceAllStringFunc(s, func(m string) string {
		return m[1:] // drop the separator, keep the three digits
	})
	s = strings.ReplaceAll(s, ",", ".")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return Validate(&v, bounds)
}

// Validate returns p unchanged when it lies inside bounds, nil
// otherwise. A nil input passes through as nil.
func Validate(p *float64, bounds model.PriceBounds) *float64 {
	if p == nil {
		return nil
	}
	if !bounds.Contains(*p) {
		return nil
	}
	return p
}
