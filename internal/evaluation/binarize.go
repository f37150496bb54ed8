package evaluation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

type decisionKind int

const (
	uniformDecision decisionKind = iota
	perClassDecision
)

// Decision selects the threshold applied to each label column: either one
// scalar broadcast over all columns or an explicit per-class vector.
// The zero Decision is Uniform(0).
type Decision struct {
	kind       decisionKind
	uniform    float64
	thresholds ThresholdVector
}

// Uniform applies t to every column.
func Uniform(t float64) Decision {
	return Decision{kind: uniformDecision, uniform: t}
}

// PerClass applies thresholds[j] to column j. The vector is copied.
func PerClass(thresholds ThresholdVector) Decision {
	return Decision{kind: perClassDecision, thresholds: thresholds.Clone()}
}

// DefaultDecision is Uniform(DefaultThreshold).
func DefaultDecision() Decision {
	return Uniform(DefaultThreshold)
}

func (d Decision) IsPerClass() bool {
	return d.kind == perClassDecision
}

// Thresholds returns a copy of the per-class vector, or nil for a uniform decision.
func (d Decision) Thresholds() ThresholdVector {
	return d.thresholds.Clone()
}

// ThresholdFor returns the threshold applied to column j.
func (d Decision) ThresholdFor(j int) float64 {
	if d.kind == perClassDecision {
		return d.thresholds[j]
	}
	return d.uniform
}

func (d Decision) String() string {
	if d.kind == perClassDecision {
		return fmt.Sprintf("per-class(%d)", len(d.thresholds))
	}
	return fmt.Sprintf("uniform(%.2f)", d.uniform)
}

func (d Decision) validate(op string, cols int) error {
	if d.kind == perClassDecision {
		if len(d.thresholds) != cols {
			return &DimensionMismatchError{
				Op:       op,
				Expected: Shape{Rows: 1, Cols: cols},
				Actual:   Shape{Rows: 1, Cols: len(d.thresholds)},
			}
		}
		for j, t := range d.thresholds {
			if !validThreshold(t) {
				return fmt.Errorf("%s: class %d: %w: %v", op, j, ErrInvalidThreshold, t)
			}
		}
		return nil
	}

	if !validThreshold(d.uniform) {
		return fmt.Errorf("%s: %w: %v", op, ErrInvalidThreshold, d.uniform)
	}
	return nil
}

func validThreshold(t float64) bool {
	return !math.IsNaN(t) && t >= 0 && t <= 1
}

// Binarize turns a score matrix into a binary prediction matrix. Cell (i, j)
// is 1 iff yScore[i, j] is strictly greater than the threshold for column j;
// a score equal to the threshold yields 0. NaN scores yield 0.
func Binarize(yScore mat.Matrix, d Decision) (*mat.Dense, error) {
	const op = "binarize"
	if isNil(yScore) {
		return nil, fmt.Errorf("%s: %w", op, ErrNilMatrix)
	}

	rows, cols := yScore.Dims()
	if err := d.validate(op, cols); err != nil {
		return nil, err
	}
	if rows == 0 || cols == 0 {
		return &mat.Dense{}, nil
	}

	out := mat.NewDense(rows, cols, nil)
	for j := range cols {
		t := d.ThresholdFor(j)
		for i := range rows {
			if yScore.At(i, j) > t {
				out.Set(i, j, 1)
			}
		}
	}
	return out, nil
}
