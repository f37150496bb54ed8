package evaluation

import "fmt"

// ThresholdVector holds one decision threshold per label column, aligned with
// the label space the matrices were built from.
type ThresholdVector []float64

// Clone returns a copy of v.
func (v ThresholdVector) Clone() ThresholdVector {
	if v == nil {
		return nil
	}
	out := make(ThresholdVector, len(v))
	copy(out, v)
	return out
}

// MetricName identifies one of the reported multi-label metrics.
type MetricName string

const (
	// MetricExactMatchRatio is the fraction of rows predicted exactly.
	MetricExactMatchRatio MetricName = "ExactMatchRatio"
	// MetricHammingLoss is the fraction of mismatched cells.
	MetricHammingLoss MetricName = "HammingLoss"
	// MetricF1Micro is F1 over the pooled counts of every class.
	MetricF1Micro MetricName = "F1Micro"
	// MetricF1Macro is the unweighted mean of the per-class F1.
	MetricF1Macro MetricName = "F1Macro"
	// MetricJaccardScore is the mean per-row intersection over union.
	MetricJaccardScore MetricName = "JaccardScore"
)

// MetricNames lists the reported metrics in display order.
var MetricNames = []MetricName{
	MetricExactMatchRatio,
	MetricHammingLoss,
	MetricF1Micro,
	MetricF1Macro,
	MetricJaccardScore,
}

// LowerIsBetter reports whether smaller values of the metric are better.
// HammingLoss is the only such metric.
func (m MetricName) LowerIsBetter() bool {
	return m == MetricHammingLoss
}

// MetricsReport is the terminal output of an evaluation. Every value is in [0,1].
type MetricsReport struct {
	ExactMatchRatio float64 `json:"exact_match_ratio"`
	HammingLoss     float64 `json:"hamming_loss"`
	F1Micro         float64 `json:"f1_micro"`
	F1Macro         float64 `json:"f1_macro"`
	JaccardScore    float64 `json:"jaccard_score"`
}

// AsMap returns the report keyed by metric name.
func (r MetricsReport) AsMap() map[MetricName]float64 {
	return map[MetricName]float64{
		MetricExactMatchRatio: r.ExactMatchRatio,
		MetricHammingLoss:     r.HammingLoss,
		MetricF1Micro:         r.F1Micro,
		MetricF1Macro:         r.F1Macro,
		MetricJaccardScore:    r.JaccardScore,
	}
}

// Get returns the value of a single metric.
func (r MetricsReport) Get(name MetricName) (float64, error) {
	v, ok := r.AsMap()[name]
	if !ok {
		return 0, fmt.Errorf("evaluation: unknown metric %q", name)
	}
	return v, nil
}

// ClassThreshold describes the outcome of the threshold search for one class.
type ClassThreshold struct {
	Class      int     `json:"class"`
	Threshold  float64 `json:"threshold"`
	F1         float64 `json:"f1"`
	Positives  int     `json:"positives"`
	Degenerate bool    `json:"degenerate"`
}

// ClassScore holds per-class precision, recall and F1 for a binary prediction.
type ClassScore struct {
	Class     int     `json:"class"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
	Predicted int     `json:"predicted"`
}
