package scores

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/labelspace"
)

// SplitFile is one split of a dataset file. Ground truth is given either as a
// binary matrix or as per-sample term lists. Scores may be omitted when they
// come from a remote predictor.
type SplitFile struct {
	Truth       [][]float64 `json:"truth,omitempty"`
	Annotations [][]string  `json:"annotations,omitempty"`
	Scores      [][]float64 `json:"scores,omitempty"`
}

// DatasetFile is the on-disk layout of a dataset, JSON, optionally zstd compressed.
type DatasetFile struct {
	Model  string    `json:"model"`
	Labels []string  `json:"labels"`
	Train  SplitFile `json:"train"`
	Test   SplitFile `json:"test"`
}

// Dataset holds the ground truth of both splits and, when present, the scores
// of the model that produced them.
type Dataset struct {
	Model string
	Space *labelspace.LabelSpace

	TrainTruth  *mat.Dense
	TestTruth   *mat.Dense
	TrainScores *mat.Dense
	TestScores  *mat.Dense
}

// LoadDataset reads a dataset file. Paths ending in .zst are decompressed.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	if strings.HasSuffix(path, ".zst") {
		if data, err = decompress(data); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	ds, err := ParseDataset(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Debug().Str("path", path).Str("model", ds.Model).Int("labels", ds.Space.Len()).Msg("loaded dataset")
	return ds, nil
}

func ParseDataset(data []byte) (*Dataset, error) {
	var f DatasetFile
	if err := sonic.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	if f.Model == "" {
		return nil, fmt.Errorf("parse dataset: model name is required")
	}

	var (
		space *labelspace.LabelSpace
		err   error
	)
	if len(f.Labels) == 0 && len(f.Train.Annotations) > 0 {
		// vocabulary fit on the training annotations
		space, err = labelspace.FromAnnotations(f.Train.Annotations)
	} else {
		space, err = labelspace.New(f.Labels)
	}
	if err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}

	ds := &Dataset{Model: f.Model, Space: space}
	if ds.TrainTruth, err = truthMatrix("train truth", f.Train, space); err != nil {
		return nil, err
	}
	if ds.TestTruth, err = truthMatrix("test truth", f.Test, space); err != nil {
		return nil, err
	}

	if ds.TrainScores, err = optionalScores("train scores", f.Train.Scores, ds.TrainTruth); err != nil {
		return nil, err
	}
	if ds.TestScores, err = optionalScores("test scores", f.Test.Scores, ds.TestTruth); err != nil {
		return nil, err
	}

	return ds, nil
}

func truthMatrix(what string, split SplitFile, space *labelspace.LabelSpace) (*mat.Dense, error) {
	if len(split.Truth) == 0 && len(split.Annotations) > 0 {
		m, err := space.Encode(split.Annotations)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", what, err)
		}
		return m, nil
	}

	m, err := toDense(what, split.Truth, space.Len())
	if err != nil {
		return nil, err
	}
	if err := checkBinary(what, m); err != nil {
		return nil, err
	}
	return m, nil
}

func optionalScores(what string, rows [][]float64, truth *mat.Dense) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	n, cols := truth.Dims()
	if len(rows) != n {
		return nil, fmt.Errorf("%s: %d rows, truth has %d: %w", what, len(rows), n, ErrRaggedMatrix)
	}

	m, err := toDense(what, rows, cols)
	if err != nil {
		return nil, err
	}
	if err := checkProbabilities(what, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Truth returns the ground truth of a split.
func (d *Dataset) Truth(split Split) (*mat.Dense, error) {
	switch split {
	case SplitTrain:
		return d.TrainTruth, nil
	case SplitTest:
		return d.TestTruth, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSplit, split)
}

// HasScores reports whether the file carried scores for both splits.
func (d *Dataset) HasScores() bool {
	return d.TrainScores != nil && d.TestScores != nil
}

// FileProvider serves the scores stored in a dataset file.
type FileProvider struct {
	ds *Dataset
}

func NewFileProvider(ds *Dataset) (*FileProvider, error) {
	if !ds.HasScores() {
		return nil, fmt.Errorf("dataset %q: %w", ds.Model, ErrEmptyMatrix)
	}
	return &FileProvider{ds: ds}, nil
}

func (p *FileProvider) Name() string {
	return p.ds.Model
}

func (p *FileProvider) Scores(ctx context.Context, split Split) (*mat.Dense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch split {
	case SplitTrain:
		return p.ds.TrainScores, nil
	case SplitTest:
		return p.ds.TestScores, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSplit, split)
}
