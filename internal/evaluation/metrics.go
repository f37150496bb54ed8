package evaluation

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Evaluate scores a binary prediction matrix against the ground truth.
//
//   - ExactMatchRatio: fraction of rows predicted exactly.
//   - HammingLoss: fraction of mismatched cells; lower is better.
//   - F1Micro: F1 over TP/FP/FN pooled across every cell.
//   - F1Macro: unweighted mean of per-class F1; a class with no true and no
//     predicted positives contributes 0.
//   - JaccardScore: per-row |pred ∩ true| / |pred ∪ true| averaged over rows;
//     a row where both sets are empty contributes 0.
//
// Empty inputs produce a zero report.
func Evaluate(yTrue, yPred mat.Matrix) (MetricsReport, error) {
	if err := checkSameShape("evaluate", yTrue, yPred); err != nil {
		return MetricsReport{}, err
	}

	rows, cols := yTrue.Dims()
	if rows == 0 || cols == 0 {
		return MetricsReport{}, nil
	}

	perClass := make([]ConfusionCounts, cols)
	jaccard := make([]float64, rows)
	exact, mismatched := 0, 0

	for i := range rows {
		rowExact := true
		intersection, union := 0, 0

		for j := range cols {
			t := isPositive(yTrue.At(i, j))
			p := isPositive(yPred.At(i, j))
			perClass[j].Add(t, p)

			if t != p {
				rowExact = false
				mismatched++
			}
			if t && p {
				intersection++
			}
			if t || p {
				union++
			}
		}

		if rowExact {
			exact++
		}
		if union > 0 {
			jaccard[i] = float64(intersection) / float64(union)
		}
	}

	var micro ConfusionCounts
	classF1 := make([]float64, cols)
	for j, c := range perClass {
		micro = micro.Plus(c)
		classF1[j] = c.F1()
	}

	n := float64(rows)
	return MetricsReport{
		ExactMatchRatio: float64(exact) / n,
		HammingLoss:     float64(mismatched) / (n * float64(cols)),
		F1Micro:         micro.F1(),
		F1Macro:         floats.Sum(classF1) / float64(cols),
		JaccardScore:    floats.Sum(jaccard) / n,
	}, nil
}

// EvaluateMultiLabel binarizes yScore with d and evaluates the result.
func EvaluateMultiLabel(yTrue, yScore mat.Matrix, d Decision) (MetricsReport, error) {
	const op = "evaluate multi-label"
	if err := checkSameShape(op, yTrue, yScore); err != nil {
		return MetricsReport{}, err
	}
	if rows, cols := yTrue.Dims(); rows == 0 || cols == 0 {
		return MetricsReport{}, d.validate(op, cols)
	}

	yPred, err := Binarize(yScore, d)
	if err != nil {
		return MetricsReport{}, err
	}
	return Evaluate(yTrue, yPred)
}

// PerClassScores returns precision, recall, F1 and support for every column.
func PerClassScores(yTrue, yPred mat.Matrix) ([]ClassScore, error) {
	if err := checkSameShape("per-class scores", yTrue, yPred); err != nil {
		return nil, err
	}

	rows, cols := yTrue.Dims()
	out := make([]ClassScore, cols)
	for j := range cols {
		var c ConfusionCounts
		for i := range rows {
			c.Add(isPositive(yTrue.At(i, j)), isPositive(yPred.At(i, j)))
		}
		out[j] = ClassScore{
			Class:     j,
			Precision: c.Precision(),
			Recall:    c.Recall(),
			F1:        c.F1(),
			Support:   c.TP + c.FN,
			Predicted: c.TP + c.FP,
		}
	}
	return out, nil
}
