package server

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return NewServer(config.ServerEnvConfig{})
}

func post(t *testing.T, s *Server, path string, body any, headers map[string]string) *http.Response {
	t.Helper()
	payload, err := sonic.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.App.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) StdResponse[T] {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out StdResponse[T]
	require.NoError(t, sonic.Unmarshal(data, &out), string(data))
	return out
}

func TestNewServerDefaults(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, "0.0.0.0:8888", s.Address())

	s = NewServer(config.ServerEnvConfig{ServerHost: "127.0.0.1", ServerPort: 9999})
	assert.Equal(t, "127.0.0.1:9999", s.Address())
}

func TestHealth(t *testing.T) {
	resp, err := newTestServer(t).App.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEvaluate(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name         string
		req          EvaluateRequest
		wantDecision string
		wantHamming  float64
		wantExact    float64
	}{
		{
			name: "default threshold",
			req: EvaluateRequest{
				Truth:  [][]float64{{1, 1}},
				Scores: [][]float64{{0.9, 0.2}},
			},
			wantDecision: "uniform(0.50)",
			wantHamming:  0.5,
			wantExact:    0,
		},
		{
			name: "per-class thresholds",
			req: EvaluateRequest{
				DecisionRequest: DecisionRequest{Thresholds: []float64{0.5, 0.1}},
				Truth:           [][]float64{{1, 1}},
				Scores:          [][]float64{{0.9, 0.2}},
			},
			wantDecision: "per-class(2)",
			wantHamming:  0,
			wantExact:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, s, EvaluatePath, tt.req, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			out := decode[EvaluateResponse](t, resp)
			require.Nil(t, out.Error)
			assert.Equal(t, tt.wantDecision, out.Body.Decision)
			assert.InDelta(t, tt.wantHamming, out.Body.Metrics.HammingLoss, 1e-9)
			assert.InDelta(t, tt.wantExact, out.Body.Metrics.ExactMatchRatio, 1e-9)
			assert.Len(t, out.Body.PerClass, 2)
		})
	}
}

func TestEvaluateRejectsBadInput(t *testing.T) {
	s := newTestServer(t)
	threshold := 1.5

	tests := []struct {
		name string
		req  EvaluateRequest
	}{
		{
			name: "shape mismatch",
			req:  EvaluateRequest{Truth: [][]float64{{1, 0}}, Scores: [][]float64{{0.1, 0.2, 0.3}}},
		},
		{
			name: "ragged rows",
			req:  EvaluateRequest{Truth: [][]float64{{1, 0}, {1}}, Scores: [][]float64{{0.1, 0.2}, {0.3, 0.4}}},
		},
		{
			name: "threshold vector length",
			req: EvaluateRequest{
				DecisionRequest: DecisionRequest{Thresholds: []float64{0.5}},
				Truth:           [][]float64{{1, 0}},
				Scores:          [][]float64{{0.1, 0.2}},
			},
		},
		{
			name: "threshold out of range",
			req: EvaluateRequest{
				DecisionRequest: DecisionRequest{Threshold: &threshold},
				Truth:           [][]float64{{1, 0}},
				Scores:          [][]float64{{0.1, 0.2}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, s, EvaluatePath, tt.req, nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			out := decode[EvaluateResponse](t, resp)
			require.NotNil(t, out.Error)
		})
	}
}

func TestEvaluateInvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, EvaluatePath, bytes.NewReader([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")

	resp, err := newTestServer(t).App.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOptimize(t *testing.T) {
	resp := post(t, newTestServer(t), OptimizePath, OptimizeRequest{
		Truth:  [][]float64{{1, 0}, {0, 0}, {1, 0}},
		Scores: [][]float64{{0.9, 0.2}, {0.4, 0.7}, {0.7, 0.1}},
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[OptimizeResponse](t, resp)
	require.Nil(t, out.Error)
	assert.InDeltaSlice(t, []float64{0.4, 0.5}, out.Body.Thresholds, 1e-9)
	require.Len(t, out.Body.Classes, 2)
	assert.True(t, out.Body.Classes[1].Degenerate)
}

func TestBinarize(t *testing.T) {
	threshold := 0.5
	resp := post(t, newTestServer(t), BinarizePath, BinarizeRequest{
		DecisionRequest: DecisionRequest{Threshold: &threshold},
		Scores:          [][]float64{{0.5, 0.51}, {0.49, 1}},
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[BinarizeResponse](t, resp)
	assert.Equal(t, [][]float64{{0, 1}, {0, 1}}, out.Body.Predictions)
}

func TestZstdRoundTrip(t *testing.T) {
	s := newTestServer(t)

	payload, err := sonic.Marshal(BinarizeRequest{Scores: [][]float64{{0.9, 0.1}}})
	require.NoError(t, err)
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := enc.EncodeAll(payload, nil)
	require.NoError(t, enc.Close())

	req := httptest.NewRequest(http.MethodPost, BinarizePath, bytes.NewReader(compressed))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "zstd")
	req.Header.Set("Accept-Encoding", "zstd")

	resp, err := s.App.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "zstd", resp.Header.Get("Content-Encoding"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	dec, err := zstd.NewReader(nil)
	require.NoError(t, err)
	defer dec.Close()
	plain, err := dec.DecodeAll(body, nil)
	require.NoError(t, err)

	var out StdResponse[BinarizeResponse]
	require.NoError(t, sonic.Unmarshal(plain, &out))
	assert.Equal(t, [][]float64{{1, 0}}, out.Body.Predictions)
}
