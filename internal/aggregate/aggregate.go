// Package aggregate computes summary statistics over surviving offers.
package aggregate

import "github.com/IvndxDB/upc-backend/internal/model"

// Range returns min/max/mean over the offers that carry a price, or nil
// when none does. A nil range is distinct from a zero-valued one.
func Range(offers []model.Offer) *model.PriceRange {
	var (
		r     model.PriceRange
		sum   float64
		count int
	)

	for _, o := range offers {
		if o.Price == nil {
			continue
		}
		p := *o.Price
		if count == 0 || p < r.Min {
			r.Min = p
		}
		if count == 0 || p > r.Max {
			r.Max = p
		}
		sum += p
		count++
	}

	if count == 0 {
		return nil
	}
	r.Avg = sum / float64(count)
	return &r
}
