package status

import "ethmon/pkg/models"

const (
	// HashrateUnitDivisor converts the wire's primary hashrate sum into the
	// unit targets are configured in.
	HashrateUnitDivisor = 1000.0

	// LowHashrateWarning is set on records whose hashrate is below threshold.
	LowHashrateWarning = "Low hashrate"
)

// Verdict is the outcome of the threshold rule.
type Verdict struct {
	Evaluated bool // False when no target or tolerance is configured
	Low       bool
	Measured  float64
	Threshold float64
}

// Evaluate applies the threshold rule to a primary hashrate sum. A sum that
// is not numeric counts as zero.
func Evaluate(sum models.Reading, target *float64, tolerance float64) Verdict {
	if target == nil || *target == 0 || tolerance == 0 {
		return Verdict{}
	}
	measured := 0.0
	if sum.Valid {
		measured = sum.Float / HashrateUnitDivisor
	}
	threshold := *target * (1 - tolerance/100)
	return Verdict{
		Evaluated: true,
		Low:       measured < threshold,
		Measured:  measured,
		Threshold: threshold,
	}
}
