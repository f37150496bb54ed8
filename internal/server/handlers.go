package server

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"gonum.org/v1/gonum/mat"

	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/evaluation"
)

var ErrRaggedMatrix = errors.New("server: rows have different lengths")

func (s *Server) handleEvaluate(_ *fiber.Ctx, req EvaluateRequest) (EvaluateResponse, error) {
	yTrue, err := denseFrom("truth", req.Truth)
	if err != nil {
		return EvaluateResponse{}, err
	}
	yScore, err := denseFrom("scores", req.Scores)
	if err != nil {
		return EvaluateResponse{}, err
	}

	d := s.decision(req.DecisionRequest)
	metrics, err := evaluation.EvaluateMultiLabel(yTrue, yScore, d)
	if err != nil {
		return EvaluateResponse{}, err
	}

	resp := EvaluateResponse{Decision: d.String(), Metrics: metrics}
	if r, _ := yScore.Dims(); r > 0 {
		yPred, err := evaluation.Binarize(yScore, d)
		if err != nil {
			return EvaluateResponse{}, err
		}
		if resp.PerClass, err = evaluation.PerClassScores(yTrue, yPred); err != nil {
			return EvaluateResponse{}, err
		}
	}
	return resp, nil
}

func (s *Server) handleOptimize(_ *fiber.Ctx, req OptimizeRequest) (OptimizeResponse, error) {
	yTrue, err := denseFrom("truth", req.Truth)
	if err != nil {
		return OptimizeResponse{}, err
	}
	yScore, err := denseFrom("scores", req.Scores)
	if err != nil {
		return OptimizeResponse{}, err
	}

	classes, err := evaluation.OptimizeThresholdsDetailed(yTrue, yScore)
	if err != nil {
		return OptimizeResponse{}, err
	}
	thresholds := make(evaluation.ThresholdVector, len(classes))
	for j, c := range classes {
		thresholds[j] = c.Threshold
	}
	return OptimizeResponse{Thresholds: thresholds, Classes: classes}, nil
}

func (s *Server) handleBinarize(_ *fiber.Ctx, req BinarizeRequest) (BinarizeResponse, error) {
	yScore, err := denseFrom("scores", req.Scores)
	if err != nil {
		return BinarizeResponse{}, err
	}

	d := s.decision(req.DecisionRequest)
	yPred, err := evaluation.Binarize(yScore, d)
	if err != nil {
		return BinarizeResponse{}, err
	}

	rows, _ := yPred.Dims()
	out := make([][]float64, rows)
	for i := range rows {
		out[i] = mat.Row(nil, i, yPred)
	}
	return BinarizeResponse{Decision: d.String(), Predictions: out}, nil
}

func (s *Server) decision(req DecisionRequest) evaluation.Decision {
	switch {
	case req.Thresholds != nil:
		return evaluation.PerClass(req.Thresholds)
	case req.Threshold != nil:
		return evaluation.Uniform(*req.Threshold)
	default:
		return evaluation.Uniform(s.defaultThreshold)
	}
}

// denseFrom copies row-major values into a matrix. No rows gives an empty matrix.
func denseFrom(what string, rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		for i, row := range rows {
			if len(row) != 0 {
				return nil, fmt.Errorf("%s row %d: %w", what, i, ErrRaggedMatrix)
			}
		}
		return &mat.Dense{}, nil
	}

	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%s row %d has %d values, want %d: %w", what, i, len(row), cols, ErrRaggedMatrix)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}
