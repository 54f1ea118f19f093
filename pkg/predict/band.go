package predict

import "fmt"

// Band is a discrete churn risk category.
type Band string

const (
	BandStable   Band = "Stable"
	BandModerate Band = "Moderate"
	BandAtRisk   Band = "AtRisk"

	// lower bounds, inclusive
	moderateThreshold = 0.40
	atRiskThreshold   = 0.70

	hundredPercent = 100
)

// Classify maps a churn probability into its risk band.
func Classify(p float64) Band {
	switch {
	case p < moderateThreshold:
		return BandStable
	case p < atRiskThreshold:
		return BandModerate
	default:
		return BandAtRisk
	}
}

// Label is the display text of the band.
func (b Band) Label() string {
	switch b {
	case BandStable:
		return "STABLE"
	case BandModerate:
		return "MODERATE"
	case BandAtRisk:
		return "AT RISK"
	default:
		return string(b)
	}
}

// Color is the display color of the band.
func (b Band) Color() string {
	switch b {
	case BandStable:
		return "#1DB954"
	case BandModerate:
		return "#fbbf24"
	default:
		return "#f87171"
	}
}

// Result is the outcome of one successful calculation.
type Result struct {
	Probability float64 `json:"probability" yaml:"probability"`
	Band        Band    `json:"band" yaml:"band"`
}

// Percent formats the probability with one decimal, e.g. "55.0%".
func (r *Result) Percent() string {
	return fmt.Sprintf("%.1f%%", r.Probability*hundredPercent)
}
