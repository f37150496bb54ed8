package evaluation

import (
	"math"
	"sort"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// OptimizeThresholds picks one decision threshold per class, maximising that
// class's F1 on (yTrue, yScore). Columns are searched independently.
//
// For every column the scores are swept from highest to lowest; each distinct
// score is a candidate and rows scoring at or above it count as predicted
// positive. The candidate with the highest F1 wins, ties going to the first
// candidate reached, which is the highest score among the maximisers. The
// returned threshold is the next lower distinct score (just below the
// candidate for the lowest one), so Binarize, which keeps scores strictly
// above the threshold, predicts exactly the rows the search scored.
// Columns without positive examples get DegenerateClassThreshold.
func OptimizeThresholds(yTrue, yScore mat.Matrix) (ThresholdVector, error) {
	classes, err := OptimizeThresholdsDetailed(yTrue, yScore)
	if err != nil {
		return nil, err
	}

	thresholds := make(ThresholdVector, len(classes))
	for j, c := range classes {
		thresholds[j] = c.Threshold
	}
	return thresholds, nil
}

// OptimizeThresholdsDetailed is OptimizeThresholds returning the search outcome
// for every class.
func OptimizeThresholdsDetailed(yTrue, yScore mat.Matrix) ([]ClassThreshold, error) {
	if err := checkSameShape("optimize thresholds", yTrue, yScore); err != nil {
		return nil, err
	}

	rows, cols := yTrue.Dims()
	classes := make([]ClassThreshold, cols)

	if rows == 0 {
		for j := range cols {
			classes[j] = ClassThreshold{Class: j, Threshold: DegenerateClassThreshold, Degenerate: true}
		}
		return classes, nil
	}

	truth := make([]float64, rows)
	scores := make([]float64, rows)
	order := make([]int, rows)

	degenerate := 0
	for j := range cols {
		mat.Col(truth, j, yTrue)
		mat.Col(scores, j, yScore)
		sanitizeScores(scores)

		classes[j] = optimizeColumn(j, truth, scores, order)
		if classes[j].Degenerate {
			degenerate++
		}
	}

	log.Debug().Int("classes", cols).Int("examples", rows).Int("degenerate", degenerate).
		Msg("optimized per-class thresholds")

	return classes, nil
}

func optimizeColumn(class int, truth, scores []float64, order []int) ClassThreshold {
	positives := 0
	for _, t := range truth {
		if isPositive(t) {
			positives++
		}
	}

	if positives == 0 {
		log.Trace().Int("class", class).Msg("no positive examples, using default threshold")
		return ClassThreshold{
			Class:      class,
			Threshold:  DegenerateClassThreshold,
			Degenerate: true,
		}
	}

	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	// nothing predicted until the first candidate beats F1 = 0
	best := ClassThreshold{
		Class:     class,
		Threshold: clamp01(scores[order[0]]),
		Positives: positives,
	}

	tp, fp := 0, 0
	for k := 0; k < len(order); {
		candidate := scores[order[k]]

		// rows tied at the candidate cross the boundary together
		for k < len(order) && scores[order[k]] == candidate {
			if isPositive(truth[order[k]]) {
				tp++
			} else {
				fp++
			}
			k++
		}

		// Binarize keeps scores strictly above the threshold, so the boundary
		// that reproduces rows >= candidate is the next lower distinct score.
		var threshold float64
		if k < len(order) {
			threshold = clamp01(scores[order[k]])
		} else {
			threshold = clamp01(math.Nextafter(candidate, math.Inf(-1)))
		}
		if threshold >= candidate {
			// a group at score 0 cannot be selected by any threshold in [0,1]
			continue
		}

		precision := float64(tp) / float64(tp+fp)
		recall := float64(tp) / float64(positives)
		f1 := 2 * precision * recall / (precision + recall + F1Epsilon)

		if f1 > best.F1 {
			best.F1 = f1
			best.Threshold = threshold
		}
	}

	return best
}

// sanitizeScores replaces NaN scores with 0 in place.
func sanitizeScores(scores []float64) {
	for i, s := range scores {
		if math.IsNaN(s) {
			log.Trace().Int("row", i).Msg("NaN score replaced with 0")
			scores[i] = 0.0
		}
	}
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
