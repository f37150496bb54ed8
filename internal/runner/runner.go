// Package runner evaluates several models side by side. Each model is fetched,
// thresholded and scored on its own goroutine, and a failure is reported on that
// model's result only.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/evaluation"
	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/labelspace"
	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/runstore"
	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/scores"
)

var (
	ErrMissingInput = errors.New("runner: incomplete model input")
	ErrDuplicate    = errors.New("runner: duplicate model name")
)

// ModelInput is one model to evaluate. TrainTruth is only needed when
// thresholds have to be optimized.
type ModelInput struct {
	Name       string
	Space      *labelspace.LabelSpace
	Provider   scores.Provider
	TrainTruth *mat.Dense
	TestTruth  *mat.Dense
}

type ModelResult struct {
	Name     string
	Space    *labelspace.LabelSpace
	Samples  int
	Outcome  evaluation.Outcome
	CacheHit bool
	RunIDs   []string
	Duration time.Duration
	Err      error
}

type ThresholdCache interface {
	Load(ctx context.Context, model string, space *labelspace.LabelSpace) (evaluation.ThresholdVector, bool, error)
	Store(ctx context.Context, model string, space *labelspace.LabelSpace, thresholds evaluation.ThresholdVector) error
}

type RunRecorder interface {
	Record(ctx context.Context, run runstore.Run) (runstore.Run, error)
}

type Runner struct {
	pipeline      *evaluation.Pipeline
	cache         ThresholdCache
	recorder      RunRecorder
	timeout       time.Duration
	maxConcurrent int
}

type Option func(*Runner)

func WithCache(c ThresholdCache) Option {
	return func(r *Runner) { r.cache = c }
}

func WithRecorder(rec RunRecorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithTimeout bounds the evaluation of each model.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) { r.timeout = d }
}

func WithMaxConcurrent(n int) Option {
	return func(r *Runner) { r.maxConcurrent = n }
}

func New(p *evaluation.Pipeline, opts ...Option) *Runner {
	if p == nil {
		p = evaluation.NewPipeline()
	}
	r := &Runner{pipeline: p}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run evaluates every input and returns one result per input, in input order.
func (r *Runner) Run(ctx context.Context, inputs []ModelInput) []ModelResult {
	results := make([]ModelResult, len(inputs))

	seen := make(map[string]bool, len(inputs))
	eg, egCtx := errgroup.WithContext(ctx)
	if r.maxConcurrent > 0 {
		eg.SetLimit(r.maxConcurrent)
	}

	for i, in := range inputs {
		results[i] = ModelResult{Name: in.Name, Space: in.Space}
		if seen[in.Name] {
			results[i].Err = fmt.Errorf("%w: %q", ErrDuplicate, in.Name)
			continue
		}
		seen[in.Name] = true

		eg.Go(func() error {
			modelCtx := egCtx
			if r.timeout > 0 {
				var cancel context.CancelFunc
				modelCtx, cancel = context.WithTimeout(egCtx, r.timeout)
				defer cancel()
			}

			start := time.Now()
			res := r.evaluate(modelCtx, in)
			res.Duration = time.Since(start)
			if res.Err != nil {
				log.Error().Err(res.Err).Str("model", in.Name).Msg("model evaluation failed")
			}
			results[i] = res
			// never fail the group, one model must not cancel the others
			return nil
		})
	}

	_ = eg.Wait()
	return results
}

func (r *Runner) evaluate(ctx context.Context, in ModelInput) ModelResult {
	res := ModelResult{Name: in.Name, Space: in.Space}
	if in.Name == "" || in.Space == nil || in.Provider == nil || in.TestTruth == nil {
		res.Err = fmt.Errorf("%w: %q", ErrMissingInput, in.Name)
		return res
	}
	res.Samples, _ = in.TestTruth.Dims()

	testScores, err := in.Provider.Scores(ctx, scores.SplitTest)
	if err != nil {
		res.Err = fmt.Errorf("%s test scores: %w", in.Name, err)
		return res
	}

	pin := evaluation.Input{
		TestTruth:  in.TestTruth,
		TestScores: testScores,
	}

	if r.pipeline.Optimize {
		if r.cache != nil {
			cached, ok, err := r.cache.Load(ctx, in.Name, in.Space)
			if err != nil {
				log.Warn().Err(err).Str("model", in.Name).Msg("threshold cache unavailable")
			} else if ok {
				pin.Thresholds = cached
				res.CacheHit = true
			}
		}

		if !res.CacheHit {
			if in.TrainTruth == nil {
				res.Err = fmt.Errorf("%w: %q has no training truth to optimize on", ErrMissingInput, in.Name)
				return res
			}
			trainScores, err := in.Provider.Scores(ctx, scores.SplitTrain)
			if err != nil {
				res.Err = fmt.Errorf("%s train scores: %w", in.Name, err)
				return res
			}
			pin.TrainTruth = in.TrainTruth
			pin.TrainScores = trainScores
		}
	}

	out, err := r.pipeline.Process(pin)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", in.Name, err)
		return res
	}
	res.Outcome = out

	if r.cache != nil && out.Thresholds != nil && !res.CacheHit {
		if err := r.cache.Store(ctx, in.Name, in.Space, out.Thresholds); err != nil {
			log.Warn().Err(err).Str("model", in.Name).Msg("failed to cache thresholds")
		}
	}

	if r.recorder != nil {
		res.RunIDs = r.record(ctx, in, res)
	}
	return res
}

// record persists the default and optimized runs. Failures are logged only.
func (r *Runner) record(ctx context.Context, in ModelInput, res ModelResult) []string {
	runs := []runstore.Run{{
		Model:       in.Name,
		Decision:    evaluation.Uniform(r.pipeline.DefaultThreshold).String(),
		Fingerprint: in.Space.Fingerprint(),
		Classes:     in.Space.Len(),
		Samples:     res.Samples,
		Metrics:     res.Outcome.Default,
	}}
	if res.Outcome.Optimized != nil {
		runs = append(runs, runstore.Run{
			Model:       in.Name,
			Decision:    evaluation.PerClass(res.Outcome.Thresholds).String(),
			Fingerprint: in.Space.Fingerprint(),
			Classes:     in.Space.Len(),
			Samples:     res.Samples,
			Metrics:     *res.Outcome.Optimized,
			Thresholds:  res.Outcome.Thresholds,
		})
	}

	ids := make([]string, 0, len(runs))
	for _, run := range runs {
		saved, err := r.recorder.Record(ctx, run)
		if err != nil {
			log.Warn().Err(err).Str("model", in.Name).Str("decision", run.Decision).Msg("failed to record run")
			continue
		}
		ids = append(ids, saved.ID)
	}
	return ids
}

// Failed returns the results that carry an error.
func Failed(results []ModelResult) []ModelResult {
	var out []ModelResult
	for _, res := range results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}
