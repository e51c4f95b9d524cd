package agreement

import "math"

// Band is the Landis & Koch (1977) qualitative interpretation of a
// kappa value.
type Band string

const (
	BandUnknown       Band = "Unknown"
	BandPoor          Band = "Poor"
	BandSlight        Band = "Slight"
	BandFair          Band = "Fair"
	BandModerate      Band = "Moderate"
	BandSubstantial   Band = "Substantial"
	BandAlmostPerfect Band = "Almost Perfect"
)

// BandFor classifies a kappa value on the Landis-Koch scale.
func BandFor(kappa float64) Band {
	switch {
	case math.IsNaN(kappa):
		return BandUnknown
	case kappa < 0:
		return BandPoor
	case kappa < 0.20:
		return BandSlight
	case kappa < 0.40:
		return BandFair
	case kappa < 0.60:
		return BandModerate
	case kappa < 0.80:
		return BandSubstantial
	default:
		return BandAlmostPerfect
	}
}

// Description is a one-line reading of the band.
func (b Band) Description() string {
	switch b {
	case BandPoor:
		return "Less than chance agreement"
	case BandSlight:
		return "Slight agreement"
	case BandFair:
		return "Fair agreement"
	case BandModerate:
		return "Moderate agreement"
	case BandSubstantial:
		return "Substantial agreement"
	case BandAlmostPerfect:
		return "Almost perfect agreement"
	default:
		return "Unable to calculate"
	}
}

// Reliability is the reliability note attached to agreement reports.
func (b Band) Reliability() string {
	switch b {
	case BandPoor:
		return "Unreliable"
	case BandSlight:
		return "Low reliability"
	case BandFair:
		return "Moderate reliability"
	case BandModerate:
		return "Good reliability"
	case BandSubstantial:
		return "Very good reliability"
	case BandAlmostPerfect:
		return "Excellent reliability"
	default:
		return "N/A"
	}
}
