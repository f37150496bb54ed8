package evaluation

import "math"

// ConfusionCounts are binary confusion counts for one label column, or pooled
// over several.
type ConfusionCounts struct {
	TP int `json:"tp"`
	FP int `json:"fp"`
	FN int `json:"fn"`
	TN int `json:"tn"`
}

// Add records one (truth, prediction) cell.
func (c *ConfusionCounts) Add(truth, pred bool) {
	switch {
	case truth && pred:
		c.TP++
	case !truth && pred:
		c.FP++
	case truth && !pred:
		c.FN++
	default:
		c.TN++
	}
}

// Plus returns the element-wise sum of c and o.
func (c ConfusionCounts) Plus(o ConfusionCounts) ConfusionCounts {
	return ConfusionCounts{
		TP: c.TP + o.TP,
		FP: c.FP + o.FP,
		FN: c.FN + o.FN,
		TN: c.TN + o.TN,
	}
}

// Precision is TP / (TP + FP), or 0 when nothing was predicted positive.
func (c ConfusionCounts) Precision() float64 {
	if c.TP+c.FP == 0 {
		return 0
	}
	return float64(c.TP) / float64(c.TP+c.FP)
}

// Recall is TP / (TP + FN), or 0 when there are no positives.
func (c ConfusionCounts) Recall() float64 {
	if c.TP+c.FN == 0 {
		return 0
	}
	return float64(c.TP) / float64(c.TP+c.FN)
}

// F1 is the harmonic mean of precision and recall. A column with no true and
// no predicted positives scores 0 (zero_division = 0), it is not skipped.
func (c ConfusionCounts) F1() float64 {
	denom := 2*c.TP + c.FP + c.FN
	if denom == 0 {
		return 0
	}
	return float64(2*c.TP) / float64(denom)
}

// isPositive reads a truth or prediction cell. NaN counts as negative, the
// same way NaN scores are treated as 0.
func isPositive(v float64) bool {
	return v != 0 && !math.IsNaN(v)
}
