// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scorer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/trl-engine/internal/httputil"
	"github.com/pdiddy/trl-engine/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

const validResponse = `{
	"trl_score": 6.5,
	"confidence": 0.72,
	"reasoning": {
		"patent_trend": "rising",
		"research_density": "moderate",
		"industry_adoption": "pilots",
		"funding_support": "growing"
	}
}`

var sampleFeatures = types.FeatureSet{PatentCount5y: 3, PatentGrowthRate: -0.5, MaturityKeywordScore: 0.012}

// mockExecutor records the last call and returns a configured invocation.
type mockExecutor struct {
	inv Invocation

	name  string
	args  []string
	stdin []byte
}

func (m *mockExecutor) Run(_ context.Context, name string, args []string, stdin []byte) Invocation {
	m.name, m.args, m.stdin = name, args, stdin
	return m.inv
}

// --- wire contract ---

func TestDecodeResponse(t *testing.T) {
	res, err := DecodeResponse([]byte(validResponse))
	require.NoError(t, err)
	assert.Equal(t, 6.5, res.TRLScore)
	assert.Equal(t, 0.72, res.Confidence)
	assert.Equal(t, "pilots", res.Reasoning.IndustryAdoption)
}

func TestDecodeResponse_ZeroValuesArePresent(t *testing.T) {
	res, err := DecodeResponse([]byte(`{"trl_score":0,"confidence":0,"reasoning":{
		"patent_trend":"","research_density":"","industry_adoption":"","funding_support":""}}`))
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestDecodeResponse_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		missing string
	}{
		{"empty", "", "empty body"},
		{"not json", "Traceback (most recent call last)", ""},
		{"missing score", `{"confidence":1,"reasoning":{"patent_trend":"","research_density":"","industry_adoption":"","funding_support":""}}`, "trl_score"},
		{"null score", `{"trl_score":null,"confidence":1,"reasoning":{"patent_trend":"","research_density":"","industry_adoption":"","funding_support":""}}`, "trl_score"},
		{"missing reasoning", `{"trl_score":5,"confidence":1}`, "reasoning"},
		{"partial reasoning", `{"trl_score":5,"confidence":1,"reasoning":{"patent_trend":"up"}}`, "reasoning.funding_support"},
		{"score is string", `{"trl_score":"5","confidence":1}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeResponse([]byte(tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedResponse)
			assert.Contains(t, err.Error(), tt.missing)
		})
	}
}

func TestEncodeRequest(t *testing.T) {
	data, err := EncodeRequest("Hypersonic propulsion", sampleFeatures)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "Hypersonic propulsion", got["technology"])

	feats := got["features"].(map[string]any)
	assert.Len(t, feats, 10)
	assert.Equal(t, 3.0, feats["patent_count_5y"])
	assert.Equal(t, -0.5, feats["patent_growth_rate"])
}

// --- process transport ---

func TestProcessScorer_Success(t *testing.T) {
	m := &mockExecutor{inv: Invocation{Outcome: OutcomeSuccess, Stdout: []byte(validResponse)}}
	p := newProcess(types.ScorerConfig{Command: "python3", Args: []string{"trl_model.py"}}, m)

	res, err := p.Score(context.Background(), "Quantum sensing", sampleFeatures)
	require.NoError(t, err)
	assert.Equal(t, 6.5, res.TRLScore)

	assert.Equal(t, "python3", m.name)
	assert.Equal(t, []string{"trl_model.py"}, m.args)
	var sent request
	require.NoError(t, json.Unmarshal(m.stdin, &sent))
	assert.Equal(t, "Quantum sensing", sent.Technology)
	assert.Equal(t, sampleFeatures, sent.Features)
}

func TestProcessScorer_Outcomes(t *testing.T) {
	tests := []struct {
		name    string
		inv     Invocation
		wantErr error
		wantMsg string
	}{
		{
			name:    "timeout",
			inv:     Invocation{Outcome: OutcomeTimeout, Err: context.DeadlineExceeded},
			wantErr: ErrTimeout,
		},
		{
			name:    "non-zero exit with stderr",
			inv:     Invocation{Outcome: OutcomeFailure, Err: errors.New("exit status 1"), Stderr: []byte("Traceback\nValueError: bad features\n")},
			wantErr: ErrUnavailable,
			wantMsg: "ValueError: bad features",
		},
		{
			name:    "command missing",
			inv:     Invocation{Outcome: OutcomeFailure, Err: exec.ErrNotFound},
			wantErr: ErrUnavailable,
		},
		{
			name:    "garbage stdout",
			inv:     Invocation{Outcome: OutcomeSuccess, Stdout: []byte("ok")},
			wantErr: ErrMalformedResponse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProcess(types.ScorerConfig{Command: "python3"}, &mockExecutor{inv: tt.inv})
			_, err := p.Score(context.Background(), "x", types.FeatureSet{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestOSExecutor_Success(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}
	inv := osExecutor{}.Run(context.Background(), "cat", nil, []byte("echo"))
	assert.Equal(t, OutcomeSuccess, inv.Outcome)
	assert.Equal(t, "echo", string(inv.Stdout))
	assert.NoError(t, inv.Err)
}

func TestOSExecutor_Timeout(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	inv := osExecutor{}.Run(ctx, "sleep", []string{"5"}, nil)
	assert.Equal(t, OutcomeTimeout, inv.Outcome)
	assert.ErrorIs(t, inv.Err, context.DeadlineExceeded)
}

func TestOSExecutor_MissingCommand(t *testing.T) {
	inv := osExecutor{}.Run(context.Background(), "trl-engine-no-such-binary", nil, nil)
	assert.Equal(t, OutcomeFailure, inv.Outcome)
	assert.Error(t, inv.Err)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "timeout", OutcomeTimeout.String())
	assert.Equal(t, "failure", OutcomeFailure.String())
}

// --- http transport ---

func TestHTTPScorer_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer s3cret", r.Header.Get("Authorization"))
		assert.Equal(t, "trl-engine/test", r.Header.Get("User-Agent"))

		var req request
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "Solid state battery", req.Technology)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, validResponse)
	}))
	defer ts.Close()

	h := NewHTTP(types.ScorerConfig{
		Endpoint:   ts.URL,
		Token:      "s3cret",
		HTTPConfig: types.HTTPConfig{UserAgent: "trl-engine/test"},
	})
	res, err := h.Score(context.Background(), "Solid state battery", sampleFeatures)
	require.NoError(t, err)
	assert.Equal(t, 0.72, res.Confidence)
}

func TestHTTPScorer_RetriesRateLimit(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		io.WriteString(w, validResponse)
	}))
	defer ts.Close()

	h := NewHTTP(types.ScorerConfig{Endpoint: ts.URL, MaxRetries: 2})
	_, err := h.Score(context.Background(), "x", sampleFeatures)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestHTTPScorer_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := NewHTTP(types.ScorerConfig{Endpoint: ts.URL}).Score(context.Background(), "x", sampleFeatures)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestHTTPScorer_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewHTTP(types.ScorerConfig{Endpoint: ts.URL}).Score(ctx, "x", sampleFeatures)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestHTTPScorer_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := NewHTTP(types.ScorerConfig{Endpoint: url}).Score(context.Background(), "x", sampleFeatures)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHTTPScorer_Malformed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"trl_score": 4}`)
	}))
	defer ts.Close()

	_, err := NewHTTP(types.ScorerConfig{Endpoint: ts.URL}).Score(context.Background(), "x", sampleFeatures)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

// --- factory ---

func TestNew(t *testing.T) {
	s, err := New(context.Background(), types.ScorerConfig{Transport: types.TransportProcess, Command: "python3"})
	require.NoError(t, err)
	assert.Equal(t, "process", s.Name())

	s, err = New(context.Background(), types.ScorerConfig{Transport: types.TransportHTTP, Endpoint: "http://localhost:8000/score"})
	require.NoError(t, err)
	assert.Equal(t, "http", s.Name())

	_, err = New(context.Background(), types.ScorerConfig{Transport: types.TransportHTTP})
	assert.Error(t, err)

	_, err = New(context.Background(), types.ScorerConfig{Transport: types.TransportProcess})
	assert.Error(t, err)

	_, err = New(context.Background(), types.ScorerConfig{Transport: types.TransportContainer})
	assert.Error(t, err)

	_, err = New(context.Background(), types.ScorerConfig{Transport: "grpc"})
	assert.Error(t, err)
}

// --- container ---

// scriptedExecutor answers by command line and records every call.
type scriptedExecutor struct {
	ok    map[string]bool
	reply Invocation
	calls []string
}

func (s *scriptedExecutor) Run(_ context.Context, name string, args []string, _ []byte) Invocation {
	line := strings.TrimSpace(name + " " + strings.Join(args, " "))
	s.calls = append(s.calls, line)
	if len(args) > 0 && args[0] == "run" {
		return s.reply
	}
	if s.ok[line] {
		return Invocation{Outcome: OutcomeSuccess}
	}
	return Invocation{Outcome: OutcomeFailure, Err: errors.New("exit status 1")}
}

func TestContainerScorer_FallsBackToPodman(t *testing.T) {
	ex := &scriptedExecutor{
		ok: map[string]bool{
			"podman info":                       true,
			"podman image exists trl-model:1.2": true,
		},
		reply: Invocation{Outcome: OutcomeSuccess, Stdout: []byte(validResponse)},
	}

	c, err := newContainer(context.Background(), types.ScorerConfig{Image: "trl-model:1.2", Args: []string{"--quiet"}}, ex)
	require.NoError(t, err)
	assert.Equal(t, "podman", c.Runtime())
	assert.Equal(t, "container", c.Name())

	res, err := c.Score(context.Background(), "Quantum sensing", sampleFeatures)
	require.NoError(t, err)
	assert.Equal(t, 6.5, res.TRLScore)
	assert.Equal(t, "podman run --rm -i trl-model:1.2 --quiet", ex.calls[len(ex.calls)-1])
}

func TestContainerScorer_ForcedRuntime(t *testing.T) {
	ex := &scriptedExecutor{ok: map[string]bool{"podman info": true}}

	_, err := newContainer(context.Background(), types.ScorerConfig{Image: "m", Runtime: "docker"}, ex)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, []string{"docker info"}, ex.calls)

	_, err = newContainer(context.Background(), types.ScorerConfig{Image: "m", Runtime: "lxc"}, ex)
	assert.ErrorContains(t, err, "unknown container runtime")
}

func TestContainerScorer_MissingImage(t *testing.T) {
	ex := &scriptedExecutor{ok: map[string]bool{"docker info": true}}

	_, err := newContainer(context.Background(), types.ScorerConfig{Image: "absent"}, ex)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "image absent not found in docker")
	assert.Equal(t, []string{"docker info", "docker image inspect absent"}, ex.calls)
}

func TestContainerScorer_RunFailure(t *testing.T) {
	ex := &scriptedExecutor{
		ok: map[string]bool{"docker info": true, "docker image inspect m": true},
		reply: Invocation{Outcome: OutcomeTimeout, Err: context.DeadlineExceeded},
	}
	c, err := newContainer(context.Background(), types.ScorerConfig{Image: "m"}, ex)
	require.NoError(t, err)

	_, err = c.Score(context.Background(), "x", types.FeatureSet{})
	assert.ErrorIs(t, err, ErrTimeout)
}
