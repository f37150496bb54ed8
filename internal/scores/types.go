// Package scores supplies per-label probability matrices and the ground truth
// they are judged against, either from dataset files or a remote model server.
package scores

import (
	"context"
	"errors"

	"gonum.org/v1/gonum/mat"
)

type Split string

const (
	SplitTrain Split = "train"
	SplitTest  Split = "test"
)

var (
	ErrUnknownSplit       = errors.New("scores: unknown split")
	ErrEmptyMatrix        = errors.New("scores: empty matrix")
	ErrRaggedMatrix       = errors.New("scores: rows have different lengths")
	ErrScoreOutOfRange    = errors.New("scores: score outside [0,1]")
	ErrNotBinary          = errors.New("scores: ground truth is not binary")
	ErrLabelSpaceMismatch = errors.New("scores: label order does not match label space")
	ErrPredictor          = errors.New("scores: predictor error")
)

// Provider produces the score matrix of one model for a split, column aligned
// with the model's label space.
type Provider interface {
	Name() string
	Scores(ctx context.Context, split Split) (*mat.Dense, error)
}

func (s Split) valid() bool {
	return s == SplitTrain || s == SplitTest
}
