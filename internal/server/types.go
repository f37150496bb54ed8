package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/evaluation"
)

const (
	healthPath = "/health"

	EvaluatePath = "/v1/evaluate"
	OptimizePath = "/v1/thresholds"
	BinarizePath = "/v1/binarize"
)

// StdResponse is the envelope of every JSON response.
type StdResponse[T any] struct {
	Body  T       `json:"body"`
	Error *string `json:"error,omitempty"`
}

// RouteHandler handles one decoded request body.
type RouteHandler[Req, Resp any] func(*fiber.Ctx, Req) (Resp, error)

// DecisionRequest selects how scores become labels. Thresholds wins over
// Threshold; with neither set the server default applies.
type DecisionRequest struct {
	Threshold  *float64  `json:"threshold,omitempty"`
	Thresholds []float64 `json:"thresholds,omitempty"`
}

type EvaluateRequest struct {
	DecisionRequest
	Truth  [][]float64 `json:"truth"`
	Scores [][]float64 `json:"scores"`
}

type EvaluateResponse struct {
	Decision string                   `json:"decision"`
	Metrics  evaluation.MetricsReport `json:"metrics"`
	PerClass []evaluation.ClassScore  `json:"per_class"`
}

type OptimizeRequest struct {
	Truth  [][]float64 `json:"truth"`
	Scores [][]float64 `json:"scores"`
}

type OptimizeResponse struct {
	Thresholds evaluation.ThresholdVector  `json:"thresholds"`
	Classes    []evaluation.ClassThreshold `json:"classes"`
}

type BinarizeRequest struct {
	DecisionRequest
	Scores [][]float64 `json:"scores"`
}

type BinarizeResponse struct {
	Decision    string      `json:"decision"`
	Predictions [][]float64 `json:"predictions"`
}
