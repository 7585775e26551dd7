package repository

// Horizon is the number of future days a forecast covers.
type Horizon int

const (
	Horizon7  Horizon = 7
	Horizon15 Horizon = 15
)

// IsValidHorizon returns true if h is a supported horizon.
func IsValidHorizon(h Horizon) bool {
	switch h {
	case Horizon7, Horizon15:
		return true
	default:
		return false
	}
}

// DefaultHorizon returns the default forecast horizon.
func DefaultHorizon() Horizon { return Horizon7 }

// NormalizeHorizon converts a raw day count to a valid horizon (or default).
func NormalizeHorizon(days int) Horizon {
	if days == 0 {
		return DefaultHorizon()
	}
	h := Horizon(days)
	if IsValidHorizon(h) {
		return h
	}
	return DefaultHorizon()
}
