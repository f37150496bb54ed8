package scores

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// toDense copies row-major values into a matrix with cols columns.
func toDense(what string, rows [][]float64, cols int) (*mat.Dense, error) {
	if len(rows) == 0 || cols == 0 {
		return nil, fmt.Errorf("%s: %w", what, ErrEmptyMatrix)
	}

	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%s: row %d has %d values, want %d: %w", what, i, len(row), cols, ErrRaggedMatrix)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

func checkProbabilities(what string, m *mat.Dense) error {
	rows, cols := m.Dims()
	for i := range rows {
		for j := range cols {
			v := m.At(i, j)
			if math.IsNaN(v) || v < 0 || v > 1 {
				return fmt.Errorf("%s: cell (%d, %d) = %v: %w", what, i, j, v, ErrScoreOutOfRange)
			}
		}
	}
	return nil
}

func checkBinary(what string, m *mat.Dense) error {
	rows, cols := m.Dims()
	for i := range rows {
		for j := range cols {
			if v := m.At(i, j); v != 0 && v != 1 {
				return fmt.Errorf("%s: cell (%d, %d) = %v: %w", what, i, j, v, ErrNotBinary)
			}
		}
	}
	return nil
}
