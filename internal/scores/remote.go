package scores

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/config"
	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/labelspace"
)

const predictPath = "/predict"

type PredictRequest struct {
	Model  string   `json:"model"`
	Split  Split    `json:"split"`
	Labels []string `json:"labels"`
}

type PredictResponse struct {
	Success bool        `json:"success"`
	Model   string      `json:"model"`
	Labels  []string    `json:"labels"`
	Scores  [][]float64 `json:"scores"`
	Error   *string     `json:"error"`
}

// RemotePredictor asks a model server for the score matrix of one model.
type RemotePredictor struct {
	client *resty.Client
	model  string
	space  *labelspace.LabelSpace
	rows   map[Split]int
}

// NewRemotePredictor creates a predictor client. rows, when non-nil, holds the
// expected row count per split, taken from the ground truth.
func NewRemotePredictor(cfg *config.PredictorEnvConfig, model string, space *labelspace.LabelSpace, rows map[Split]int) (*RemotePredictor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if cfg.PredictorURL == "" {
		return nil, fmt.Errorf("predictor url cannot be empty")
	}
	if space == nil {
		return nil, fmt.Errorf("label space cannot be nil")
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.PredictorURL, "/")).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetTimeout(cfg.PredictorTimeout).
		SetRetryCount(cfg.PredictorRetryMax).
		SetRetryWaitTime(cfg.PredictorRetryWait).
		SetRetryMaxWaitTime(cfg.PredictorRetryWait * 2).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return r != nil && r.StatusCode() >= 500
		})

	return &RemotePredictor{
		client: client,
		model:  model,
		space:  space,
		rows:   rows,
	}, nil
}

func (p *RemotePredictor) Name() string {
	return p.model
}

func (p *RemotePredictor) Scores(ctx context.Context, split Split) (*mat.Dense, error) {
	if !split.valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSplit, split)
	}

	body, err := sonic.Marshal(PredictRequest{
		Model:  p.model,
		Split:  split,
		Labels: p.space.Terms(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal predict request: %w", err)
	}

	start := time.Now()
	resp, err := p.client.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept-Encoding", "zstd").
		SetBody(body).
		Post(predictPath)
	if err != nil {
		log.Error().Err(err).Str("model", p.model).Str("split", string(split)).Msg("predict request failed")
		return nil, fmt.Errorf("post %s: %w", predictPath, err)
	}
	if resp.IsError() {
		log.Error().Int("status", resp.StatusCode()).Str("model", p.model).Msg("predict non-2xx")
		return nil, fmt.Errorf("%w: status %d: %s", ErrPredictor, resp.StatusCode(), resp.String())
	}

	data := resp.Body()
	if strings.Contains(strings.ToLower(resp.Header().Get("Content-Encoding")), "zstd") {
		if data, err = decompress(data); err != nil {
			return nil, err
		}
	}

	var result PredictResponse
	if err := sonic.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshal predict response: %w", err)
	}
	if result.Error != nil || !result.Success {
		msg := "unsuccessful response"
		if result.Error != nil {
			msg = *result.Error
		}
		return nil, fmt.Errorf("%w: %s", ErrPredictor, msg)
	}

	if !slices.Equal(result.Labels, p.space.Terms()) {
		return nil, fmt.Errorf("model %q: %w", p.model, ErrLabelSpaceMismatch)
	}

	what := fmt.Sprintf("%s %s scores", p.model, split)
	m, err := toDense(what, result.Scores, p.space.Len())
	if err != nil {
		return nil, err
	}
	if want, ok := p.rows[split]; ok {
		if got, _ := m.Dims(); got != want {
			return nil, fmt.Errorf("%s: %d rows, want %d: %w", what, got, want, ErrRaggedMatrix)
		}
	}
	if err := checkProbabilities(what, m); err != nil {
		return nil, err
	}

	log.Debug().Str("model", p.model).Str("split", string(split)).Dur("took", time.Since(start)).Msg("fetched remote scores")
	return m, nil
}

func decompress(data []byte) ([]byte, error) {
	r, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zstd: failed to create reader: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("zstd: failed to decompress response: %w", err)
	}
	return out, nil
}
