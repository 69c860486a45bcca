package model

// Float returns a pointer to v. Convenience for optional price fields.
func Float(v float64) *float64 {
	return &v
}
