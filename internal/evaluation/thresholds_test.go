package evaluation

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func column(values ...float64) *mat.Dense {
	return mat.NewDense(len(values), 1, values)
}

func TestOptimizeThresholds(t *testing.T) {
	tests := []struct {
		name   string
		truth  *mat.Dense
		scores *mat.Dense
		want   ThresholdVector
	}{
		{
			name:   "best F1 inside the sweep",
			truth:  column(1, 0, 1, 0),
			scores: column(0.9, 0.8, 0.7, 0.1),
			want:   ThresholdVector{0.1},
		},
		{
			name:   "tie goes to the highest score",
			truth:  column(1, 0, 0, 1),
			scores: column(0.9, 0.8, 0.7, 0.6),
			want:   ThresholdVector{0.8},
		},
		{
			name:   "tied scores cross together",
			truth:  column(1, 0),
			scores: column(0.5, 0.5),
			want:   ThresholdVector{0.5},
		},
		{
			name:   "unsorted input",
			truth:  column(0, 1, 0, 1, 1),
			scores: column(0.05, 0.4, 0.6, 0.8, 0.3),
			// sweep 0.8 (1/1), 0.6 (1/2), 0.4 (2/3), 0.3 (3/4), 0.05 (3/5)
			want: ThresholdVector{0.05},
		},
		{
			name:   "separable class keeps the positive at the boundary",
			truth:  column(1, 1, 0, 0),
			scores: column(0.9, 0.8, 0.3, 0.2),
			want:   ThresholdVector{0.3},
		},
		{
			name:   "all zero scores predict nothing",
			truth:  column(1, 0),
			scores: column(0, 0),
			want:   ThresholdVector{0},
		},
		{
			name:   "degenerate class",
			truth:  column(0, 0, 0),
			scores: column(0.9, 0.2, 0.4),
			want:   ThresholdVector{DegenerateClassThreshold},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OptimizeThresholds(tt.truth, tt.scores)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, got, tol)
		})
	}
}

func TestOptimizeThresholdsColumnsAreIndependent(t *testing.T) {
	truth := dense([][]float64{
		{1, 0, 0},
		{0, 0, 1},
		{1, 0, 0},
		{0, 0, 0},
	})
	scores := dense([][]float64{
		{0.9, 0.3, 0.2},
		{0.8, 0.9, 0.95},
		{0.7, 0.1, 0.3},
		{0.1, 0.5, 0.4},
	})

	classes, err := OptimizeThresholdsDetailed(truth, scores)
	require.NoError(t, err)
	require.Len(t, classes, 3)

	assert.InDelta(t, 0.1, classes[0].Threshold, tol)
	assert.Equal(t, 2, classes[0].Positives)
	assert.False(t, classes[0].Degenerate)

	assert.InDelta(t, 0.5, classes[1].Threshold, tol)
	assert.True(t, classes[1].Degenerate)

	assert.InDelta(t, 0.4, classes[2].Threshold, tol)
	assert.InDelta(t, 1.0, classes[2].F1, 1e-6)

	// swapping a column leaves the others untouched
	swapped := mat.DenseCopyOf(scores)
	swapped.SetCol(1, []float64{0.0, 1.0, 0.0, 1.0})
	again, err := OptimizeThresholds(truth, swapped)
	require.NoError(t, err)
	assert.InDelta(t, classes[0].Threshold, again[0], tol)
	assert.InDelta(t, classes[2].Threshold, again[2], tol)
}

func TestOptimizeThresholdsLowestScoreStaysSelected(t *testing.T) {
	got, err := OptimizeThresholds(column(1, 1), column(0.5, 0.5))
	require.NoError(t, err)
	assert.Less(t, got[0], 0.5)

	pred, err := Binarize(column(0.5, 0.5), PerClass(got))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, pred.RawMatrix().Data)
}

func TestOptimizedThresholdsReproduceSearchF1(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	rows, cols := 40, 6

	truth := mat.NewDense(rows, cols, nil)
	scores := mat.NewDense(rows, cols, nil)
	for i := range rows {
		for j := range cols {
			if rng.Float64() < 0.3 {
				truth.Set(i, j, 1)
			}
			// coarse grid so many scores tie and sit on the boundary
			scores.Set(i, j, float64(rng.IntN(11))/10)
		}
	}

	tests := []struct {
		name   string
		truth  *mat.Dense
		scores *mat.Dense
	}{
		{
			name:   "positive at the boundary",
			truth:  column(1, 1, 0, 0),
			scores: column(0.9, 0.8, 0.3, 0.2),
		},
		{
			name:   "tied groups",
			truth:  dense([][]float64{{1, 0}, {1, 1}, {0, 1}, {0, 0}}),
			scores: dense([][]float64{{0.6, 0.2}, {0.6, 0.2}, {0.6, 0.7}, {0.1, 0.2}}),
		},
		{
			name:   "random grid",
			truth:  truth,
			scores: scores,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classes, err := OptimizeThresholdsDetailed(tt.truth, tt.scores)
			require.NoError(t, err)

			thresholds := make(ThresholdVector, len(classes))
			for j, c := range classes {
				thresholds[j] = c.Threshold
			}
			pred, err := Binarize(tt.scores, PerClass(thresholds))
			require.NoError(t, err)
			perClass, err := PerClassScores(tt.truth, pred)
			require.NoError(t, err)

			for j, c := range classes {
				if c.Degenerate {
					continue
				}
				assert.GreaterOrEqual(t, perClass[j].F1, c.F1, "class %d", j)
				assert.InDelta(t, c.F1, perClass[j].F1, 1e-6, "class %d", j)
			}
		})
	}
}

func TestOptimizeThresholdsBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	rows, cols := 60, 8

	truth := mat.NewDense(rows, cols, nil)
	scores := mat.NewDense(rows, cols, nil)
	for i := range rows {
		for j := range cols {
			if rng.Float64() < 0.3 {
				truth.Set(i, j, 1)
			}
			scores.Set(i, j, rng.Float64())
		}
	}

	got, err := OptimizeThresholds(truth, scores)
	require.NoError(t, err)
	require.Len(t, got, cols)
	for j, v := range got {
		assert.GreaterOrEqual(t, v, 0.0, "class %d", j)
		assert.LessOrEqual(t, v, 1.0, "class %d", j)
	}
}

func TestOptimizeThresholdsNaNScores(t *testing.T) {
	got, err := OptimizeThresholds(column(1, 0, 1), column(0.8, math.NaN(), 0.6))
	require.NoError(t, err)
	assert.InDelta(t, 0.0, got[0], tol)
}

func TestOptimizeThresholdsDimensionMismatch(t *testing.T) {
	_, err := OptimizeThresholds(mat.NewDense(4, 3, nil), mat.NewDense(4, 4, nil))
	require.ErrorIs(t, err, ErrDimensionMismatch)

	var dm *DimensionMismatchError
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, "optimize thresholds", dm.Op)
	assert.Contains(t, err.Error(), "(4, 3)")
	assert.Contains(t, err.Error(), "(4, 4)")
}

func BenchmarkOptimizeThresholds(b *testing.B) {
	sizes := []struct {
		examples int
		classes  int
	}{
		{500, 20},
		{2000, 50},
		{5000, 120},
	}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("Examples%d_Classes%d", size.examples, size.classes), func(b *testing.B) {
			truth := mat.NewDense(size.examples, size.classes, nil)
			scores := mat.NewDense(size.examples, size.classes, nil)
			for i := range size.examples {
				for j := range size.classes {
					if rand.Float64() < 0.1 {
						truth.Set(i, j, 1)
					}
					scores.Set(i, j, rand.Float64())
				}
			}

			b.ResetTimer()
			for b.Loop() {
				_, _ = OptimizeThresholds(truth, scores)
			}
		})
	}
}
