package main

import (
	"errors"
	"os"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/evaluation"
	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/utils/logger"
)

func main() {
	logger.Init(os.Getenv("ENVIRONMENT"), os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	testPerfectPrediction()
	testPartialPrediction()
	testOptimizeThresholds()
	testStrictBinarize()
	testDimensionMismatch()
}

func logReport(name string, r evaluation.MetricsReport) {
	ev := log.Info().Str("case", name)
	values := r.AsMap()
	for _, metric := range evaluation.MetricNames {
		ev = ev.Float64(string(metric), values[metric])
	}
	ev.Msg("metrics")
}

func testPerfectPrediction() {
	log.Info().Msg("--- Testing perfect prediction ---")
	y := mat.NewDense(2, 2, []float64{
		1, 0,
		0, 1,
	})

	r, err := evaluation.Evaluate(y, y)
	if err != nil {
		log.Error().Err(err).Msg("evaluate failed")
		return
	}
	logReport("perfect", r)
}

func testPartialPrediction() {
	log.Info().Msg("--- Testing partial prediction ---")
	yTrue := mat.NewDense(1, 2, []float64{1, 1})
	yPred := mat.NewDense(1, 2, []float64{1, 0})

	r, err := evaluation.Evaluate(yTrue, yPred)
	if err != nil {
		log.Error().Err(err).Msg("evaluate failed")
		return
	}
	// HammingLoss 0.5, ExactMatchRatio 0, JaccardScore 0.5
	logReport("partial", r)
}

func testOptimizeThresholds() {
	log.Info().Msg("--- Testing OptimizeThresholds ---")
	yTrue := mat.NewDense(4, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		1, 1, 0,
		0, 0, 0,
	})
	yScore := mat.NewDense(4, 3, []float64{
		0.8, 0.3, 0.2,
		0.7, 0.6, 0.1,
		0.4, 0.9, 0.4,
		0.1, 0.2, 0.3,
	})

	classes, err := evaluation.OptimizeThresholdsDetailed(yTrue, yScore)
	if err != nil {
		log.Error().Err(err).Msg("optimize failed")
		return
	}
	for _, c := range classes {
		log.Info().Int("class", c.Class).Float64("threshold", c.Threshold).Float64("f1", c.F1).
			Bool("degenerate", c.Degenerate).Msgf("class %d threshold %.2f", c.Class, c.Threshold)
	}
	evaluation.PlotThresholdsTerminal(os.Stdout, nil, classes)
}

func testStrictBinarize() {
	log.Info().Msg("--- Testing Binarize at the threshold ---")
	yScore := mat.NewDense(1, 3, []float64{0.5, 0.51, 0.49})

	yPred, err := evaluation.Binarize(yScore, evaluation.Uniform(0.5))
	if err != nil {
		log.Error().Err(err).Msg("binarize failed")
		return
	}
	log.Info().Floats64("scores", yScore.RawRowView(0)).Floats64("predicted", yPred.RawRowView(0)).Msg("binarized")
}

func testDimensionMismatch() {
	log.Info().Msg("--- Testing DimensionMismatch ---")
	yTrue := mat.NewDense(2, 2, nil)
	yScore := mat.NewDense(2, 3, nil)

	_, err := evaluation.OptimizeThresholds(yTrue, yScore)
	var dm *evaluation.DimensionMismatchError
	if errors.As(err, &dm) {
		log.Info().Str("op", dm.Op).Stringer("expected", dm.Expected).Stringer("actual", dm.Actual).Msg("rejected misaligned input")
		return
	}
	log.Error().Err(err).Msg("expected a dimension mismatch")
}
