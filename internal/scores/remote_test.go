package scores

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/config"
	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/labelspace"
)

var testLabels = []string{"GO:0005634", "GO:0005737"}

func newTestPredictor(t *testing.T, handler http.HandlerFunc, rows map[Split]int) *RemotePredictor {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	space, err := labelspace.New(testLabels)
	require.NoError(t, err)

	p, err := NewRemotePredictor(&config.PredictorEnvConfig{
		PredictorURL:       ts.URL,
		PredictorTimeout:   5 * time.Second,
		PredictorRetryMax:  2,
		PredictorRetryWait: time.Millisecond,
	}, "enhanced", space, rows)
	require.NoError(t, err)
	return p
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func TestNewRemotePredictorValidation(t *testing.T) {
	space, err := labelspace.New(testLabels)
	require.NoError(t, err)

	_, err = NewRemotePredictor(nil, "m", space, nil)
	assert.Error(t, err)

	_, err = NewRemotePredictor(&config.PredictorEnvConfig{}, "m", space, nil)
	assert.Error(t, err)

	_, err = NewRemotePredictor(&config.PredictorEnvConfig{PredictorURL: "http://localhost"}, "m", nil, nil)
	assert.Error(t, err)
}

func TestRemotePredictorScores(t *testing.T) {
	p := newTestPredictor(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var req PredictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Model != "enhanced" || req.Split != SplitTest {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		writeJSON(t, w, PredictResponse{
			Success: true,
			Model:   req.Model,
			Labels:  req.Labels,
			Scores:  [][]float64{{0.9, 0.1}, {0.3, 0.7}},
		})
	}, map[Split]int{SplitTest: 2})

	m, err := p.Scores(context.Background(), SplitTest)
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 0.7, m.At(1, 1))
	assert.Equal(t, "enhanced", p.Name())
}

func TestRemotePredictorZstdResponse(t *testing.T) {
	p := newTestPredictor(t, func(w http.ResponseWriter, r *http.Request) {
		payload, err := json.Marshal(PredictResponse{
			Success: true,
			Labels:  testLabels,
			Scores:  [][]float64{{0.25, 0.75}},
		})
		if err != nil {
			t.Errorf("marshal: %v", err)
			return
		}

		enc, err := zstd.NewWriter(nil)
		if err != nil {
			t.Errorf("zstd writer: %v", err)
			return
		}
		compressed := enc.EncodeAll(payload, nil)
		_ = enc.Close()

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "zstd")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(compressed)
	}, nil)

	m, err := p.Scores(context.Background(), SplitTrain)
	require.NoError(t, err)
	assert.Equal(t, 0.75, m.At(0, 1))
}

func TestRemotePredictorRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	p := newTestPredictor(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(t, w, PredictResponse{Success: true, Labels: testLabels, Scores: [][]float64{{0.5, 0.5}}})
	}, nil)

	_, err := p.Scores(context.Background(), SplitTest)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRemotePredictorErrors(t *testing.T) {
	msg := "model not loaded"

	tests := []struct {
		name    string
		status  int
		resp    PredictResponse
		rows    map[Split]int
		wantErr error
	}{
		{
			name:    "client error status",
			status:  http.StatusBadRequest,
			wantErr: ErrPredictor,
		},
		{
			name:    "error field",
			status:  http.StatusOK,
			resp:    PredictResponse{Success: false, Error: &msg},
			wantErr: ErrPredictor,
		},
		{
			name:    "label order differs",
			status:  http.StatusOK,
			resp:    PredictResponse{Success: true, Labels: []string{"GO:0005737", "GO:0005634"}, Scores: [][]float64{{0.1, 0.2}}},
			wantErr: ErrLabelSpaceMismatch,
		},
		{
			name:    "score out of range",
			status:  http.StatusOK,
			resp:    PredictResponse{Success: true, Labels: testLabels, Scores: [][]float64{{0.1, 1.5}}},
			wantErr: ErrScoreOutOfRange,
		},
		{
			name:    "wrong row count",
			status:  http.StatusOK,
			resp:    PredictResponse{Success: true, Labels: testLabels, Scores: [][]float64{{0.1, 0.5}}},
			rows:    map[Split]int{SplitTest: 3},
			wantErr: ErrRaggedMatrix,
		},
		{
			name:    "empty scores",
			status:  http.StatusOK,
			resp:    PredictResponse{Success: true, Labels: testLabels},
			wantErr: ErrEmptyMatrix,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPredictor(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.status != http.StatusOK {
					w.WriteHeader(tt.status)
					_, _ = w.Write([]byte("bad"))
					return
				}
				writeJSON(t, w, tt.resp)
			}, tt.rows)

			_, err := p.Scores(context.Background(), SplitTest)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	p := newTestPredictor(t, func(w http.ResponseWriter, r *http.Request) {}, nil)
	_, err := p.Scores(context.Background(), "holdout")
	require.ErrorIs(t, err, ErrUnknownSplit)
}
