package evaluation

import (
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/utils/logger"
)

// Pipeline evaluates one model: the flat default threshold first, then, when
// enabled, per-class thresholds tuned on the training split.
type Pipeline struct {
	DefaultThreshold float64
	Optimize         bool

	sugar *zap.SugaredLogger
}

type PipelineOption func(*Pipeline)

func WithDefaultThreshold(t float64) PipelineOption {
	return func(p *Pipeline) {
		p.DefaultThreshold = t
	}
}

func WithOptimize(enabled bool) PipelineOption {
	return func(p *Pipeline) {
		p.Optimize = enabled
	}
}

func WithLogger(l *zap.SugaredLogger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.sugar = l
		}
	}
}

func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		DefaultThreshold: DefaultThreshold,
		Optimize:         true,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.sugar == nil {
		p.sugar = logger.Sugar()
	}

	return p
}

// Input carries the matrices of one model. TrainTruth and TrainScores are only
// read when thresholds have to be optimized; Thresholds, when set, skips the search.
type Input struct {
	TrainTruth  mat.Matrix
	TrainScores mat.Matrix
	TestTruth   mat.Matrix
	TestScores  mat.Matrix
	Thresholds  ThresholdVector
}

// Outcome is the result of Pipeline.Process.
type Outcome struct {
	Default    MetricsReport    `json:"default"`
	Optimized  *MetricsReport   `json:"optimized,omitempty"`
	Thresholds ThresholdVector  `json:"thresholds,omitempty"`
	Classes    []ClassThreshold `json:"classes,omitempty"`
	PerClass   []ClassScore     `json:"per_class"`
}

// Best returns the optimized report when present, the default one otherwise.
func (o Outcome) Best() MetricsReport {
	if o.Optimized != nil {
		return *o.Optimized
	}
	return o.Default
}

func (p *Pipeline) Process(in Input) (Outcome, error) {
	var out Outcome

	defaultDecision := Uniform(p.DefaultThreshold)
	defaultReport, err := EvaluateMultiLabel(in.TestTruth, in.TestScores, defaultDecision)
	if err != nil {
		return out, fmt.Errorf("default threshold: %w", err)
	}
	out.Default = defaultReport
	p.sugar.Infow("Evaluated with default threshold", "threshold", p.DefaultThreshold, "metrics", defaultReport)

	decision := defaultDecision
	if p.Optimize {
		thresholds := in.Thresholds.Clone()
		if thresholds == nil {
			classes, err := OptimizeThresholdsDetailed(in.TrainTruth, in.TrainScores)
			if err != nil {
				return out, fmt.Errorf("optimize thresholds: %w", err)
			}
			out.Classes = classes
			thresholds = make(ThresholdVector, len(classes))
			for j, c := range classes {
				thresholds[j] = c.Threshold
			}
		} else {
			p.sugar.Debugw("Using precomputed thresholds", "classes", len(thresholds))
		}

		decision = PerClass(thresholds)
		optimized, err := EvaluateMultiLabel(in.TestTruth, in.TestScores, decision)
		if err != nil {
			return out, fmt.Errorf("optimized thresholds: %w", err)
		}
		out.Thresholds = thresholds
		out.Optimized = &optimized
		p.sugar.Infow("Evaluated with optimized thresholds", "metrics", optimized)
	}

	yPred, err := Binarize(in.TestScores, decision)
	if err != nil {
		return out, err
	}
	if out.PerClass, err = PerClassScores(in.TestTruth, yPred); err != nil {
		return out, err
	}

	return out, nil
}
