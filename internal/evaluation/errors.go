package evaluation

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrDimensionMismatch is returned when matrices passed together disagree
	// in row or column count. Match it with errors.Is; the concrete error is a
	// *DimensionMismatchError carrying both shapes.
	ErrDimensionMismatch = errors.New("evaluation: dimension mismatch")

	// ErrInvalidThreshold is returned for thresholds outside [0,1] or NaN.
	ErrInvalidThreshold = errors.New("evaluation: threshold outside [0,1]")

	// ErrNilMatrix is returned when a required matrix is nil.
	ErrNilMatrix = errors.New("evaluation: nil matrix")
)

// Shape is a matrix shape, rows by columns.
type Shape struct {
	Rows int
	Cols int
}

func (s Shape) String() string {
	return fmt.Sprintf("(%d, %d)", s.Rows, s.Cols)
}

// DimensionMismatchError reports which operation received misaligned inputs.
type DimensionMismatchError struct {
	Op       string
	Expected Shape
	Actual   Shape
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: %v: expected shape %s, got %s", e.Op, ErrDimensionMismatch, e.Expected, e.Actual)
}

func (e *DimensionMismatchError) Unwrap() error {
	return ErrDimensionMismatch
}

func shapeOf(m mat.Matrix) Shape {
	r, c := m.Dims()
	return Shape{Rows: r, Cols: c}
}

func checkSameShape(op string, expected, actual mat.Matrix) error {
	if isNil(expected) || isNil(actual) {
		return fmt.Errorf("%s: %w", op, ErrNilMatrix)
	}
	es, as := shapeOf(expected), shapeOf(actual)
	if es != as {
		return &DimensionMismatchError{Op: op, Expected: es, Actual: as}
	}
	return nil
}

func isNil(m mat.Matrix) bool {
	if m == nil {
		return true
	}
	d, ok := m.(*mat.Dense)
	return ok && d == nil
}
