package prober

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AylerH/DB-GPT/internal/llm"
	"github.com/AylerH/DB-GPT/internal/platform/metrics"
	"github.com/AylerH/DB-GPT/pkg/api"
)

type captured struct {
	path   string
	auth   string
	hasKey bool
	body   map[string]any
}

func recordingServer(t *testing.T, status int, respBody string) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.path = r.URL.Path
		c.auth = r.Header.Get("Authorization")
		_, c.hasKey = r.Header["Authorization"]
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &c.body)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(respBody))
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func newProber(timeout time.Duration) *Prober {
	return New(&http.Client{}, timeout, zap.NewNop(), nil)
}

func TestProbe_DispatchTable(t *testing.T) {
	tests := []struct {
		name     string
		wt       api.WorkerType
		dialect  llm.Dialect
		basePath string
		wantPath string
		wantBody map[string]any
	}{
		{
			name: "embedding ollama", wt: api.Text2Vec, dialect: llm.OllamaNative,
			wantPath: "/api/embeddings",
			wantBody: map[string]any{"model": "m", "prompt": "test"},
		},
		{
			name: "embedding openai", wt: api.Text2Vec, dialect: llm.OpenAICompatible, basePath: "/v1",
			wantPath: "/v1/embeddings",
			wantBody: map[string]any{"model": "m", "input": "test"},
		},
		{
			name: "chat ollama", wt: api.LLM, dialect: llm.OllamaNative,
			wantPath: "/api/chat",
			wantBody: map[string]any{
				"model":    "m",
				"messages": []any{map[string]any{"role": "user", "content": "Hi"}},
				"stream":   false,
			},
		},
		{
			name: "chat openai", wt: api.LLM, dialect: llm.OpenAICompatible, basePath: "/v1",
			wantPath: "/v1/chat/completions",
			wantBody: map[string]any{
				"model":      "m",
				"messages":   []any{map[string]any{"role": "user", "content": "Hi"}},
				"max_tokens": float64(5),
			},
		},
		{
			name: "reranker uses chat", wt: api.Reranker, dialect: llm.OpenAICompatible,
			wantPath: "/chat/completions",
			wantBody: map[string]any{
				"model":      "m",
				"messages":   []any{map[string]any{"role": "user", "content": "Hi"}},
				"max_tokens": float64(5),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, got := recordingServer(t, http.StatusOK, `{}`)
			conn := llm.ConnectionParams{APIBase: srv.URL + tt.basePath, Dialect: tt.dialect}

			res := newProber(time.Second).Probe(context.Background(), "m", tt.wt, conn)

			require.True(t, res.Success, res.Message)
			assert.Equal(t, tt.wantPath, got.path)
			assert.Equal(t, tt.wantBody, got.body)
		})
	}
}

func TestProbe_TrailingSlashNormalized(t *testing.T) {
	for _, base := range []string{"/v1", "/v1/"} {
		srv, got := recordingServer(t, http.StatusOK, ``)
		conn := llm.ConnectionParams{APIBase: srv.URL + base, Dialect: llm.OpenAICompatible}

		res := newProber(time.Second).Probe(context.Background(), "gpt", api.LLM, conn)

		require.True(t, res.Success)
		assert.Equal(t, "/v1/chat/completions", got.path)
		assert.Equal(t, srv.URL+"/v1/chat/completions", res.URL)
	}
}

func TestProbe_BearerOnlyWithKey(t *testing.T) {
	srv, got := recordingServer(t, http.StatusOK, ``)

	conn := llm.ConnectionParams{APIBase: srv.URL, APIKey: "sk-1", Dialect: llm.OpenAICompatible}
	newProber(time.Second).Probe(context.Background(), "m", api.LLM, conn)
	assert.Equal(t, "Bearer sk-1", got.auth)

	conn.APIKey = ""
	newProber(time.Second).Probe(context.Background(), "m", api.LLM, conn)
	assert.False(t, got.hasKey, "no Authorization header without a key")
}

func TestProbe_Status200IsSuccessRegardlessOfBody(t *testing.T) {
	srv, _ := recordingServer(t, http.StatusOK, `{"error":"this is ignored"}`)
	conn := llm.ConnectionParams{APIBase: srv.URL, Dialect: llm.OllamaNative}

	res := newProber(time.Second).Probe(context.Background(), "m", api.LLM, conn)

	assert.True(t, res.Success)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, KindOK, res.Kind)
}

func TestProbe_BadStatus(t *testing.T) {
	srv, _ := recordingServer(t, http.StatusInternalServerError, `{"error":{"message":"model not loaded"}}`)
	conn := llm.ConnectionParams{APIBase: srv.URL, Dialect: llm.OpenAICompatible}

	res := newProber(time.Second).Probe(context.Background(), "m", api.LLM, conn)

	assert.False(t, res.Success)
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Equal(t, KindBadStatus, res.Kind)
	assert.Equal(t, `Connection failed: 500 {"error":{"message":"model not loaded"}}`, res.Message)
}

func TestProbe_NonOKSuccessCodeFails(t *testing.T) {
	srv, _ := recordingServer(t, http.StatusCreated, ``)
	conn := llm.ConnectionParams{APIBase: srv.URL, Dialect: llm.OpenAICompatible}

	res := newProber(time.Second).Probe(context.Background(), "m", api.LLM, conn)
	assert.False(t, res.Success)
	assert.Equal(t, KindBadStatus, res.Kind)
}

func TestProbe_BodyTruncated(t *testing.T) {
	srv, _ := recordingServer(t, http.StatusBadGateway, strings.Repeat("e", 10_000))
	conn := llm.ConnectionParams{APIBase: srv.URL, Dialect: llm.OpenAICompatible}

	res := newProber(time.Second).Probe(context.Background(), "m", api.LLM, conn)
	assert.Less(t, len(res.Message), 3000)
}

func TestProbe_Timeout(t *testing.T) {
	release := make(chan struct{})
	var served atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served.Add(1)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	conn := llm.ConnectionParams{APIBase: srv.URL, Dialect: llm.OpenAICompatible}

	start := time.Now()
	res := newProber(50*time.Millisecond).Probe(context.Background(), "m", api.LLM, conn)

	assert.Less(t, time.Since(start), 2*time.Second, "probe must not outlive its bound")
	assert.False(t, res.Success)
	assert.Equal(t, KindTimedOut, res.Kind)
	assert.Equal(t, "Connection timed out after 0.05s connecting to "+srv.URL+"/chat/completions", res.Message)
	assert.Equal(t, int32(1), served.Load(), "no retry")
}

type failingTransport struct{}

func (failingTransport) Do(*http.Request) (*http.Response, error) {
	return nil, errors.New("dial tcp 10.255.255.1:80: connect: connection refused")
}

func TestProbe_ConnectionFailed(t *testing.T) {
	conn := llm.ConnectionParams{APIBase: "http://10.255.255.1", Dialect: llm.OpenAICompatible}

	res := New(failingTransport{}, time.Second, zap.NewNop(), nil).Probe(context.Background(), "m", api.Text2Vec, conn)

	assert.False(t, res.Success)
	assert.Equal(t, KindConnectionFailed, res.Kind)
	assert.Equal(t, "Connection failed: dial tcp 10.255.255.1:80: connect: connection refused URL: http://10.255.255.1/embeddings", res.Message)
}

type countingTransport struct{ calls atomic.Int32 }

func (c *countingTransport) Do(*http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return nil, errors.New("unexpected call")
}

func TestProbe_MissingBaseMakesNoCall(t *testing.T) {
	tr := &countingTransport{}
	res := New(tr, time.Second, zap.NewNop(), nil).Probe(context.Background(), "m", api.LLM, llm.ConnectionParams{})

	assert.False(t, res.Success)
	assert.Equal(t, KindInvalidParams, res.Kind)
	assert.Contains(t, res.Message, "API Base URL is required")
	assert.Zero(t, tr.calls.Load())
}

func TestProbe_RecordsMetrics(t *testing.T) {
	srv, _ := recordingServer(t, http.StatusOK, ``)
	m := metrics.New()
	p := New(&http.Client{}, time.Second, zap.NewNop(), m)

	p.Probe(context.Background(), "m", api.LLM, llm.ConnectionParams{APIBase: srv.URL, Dialect: llm.OpenAICompatible})
	p.Probe(context.Background(), "m", api.LLM, llm.ConnectionParams{})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Probes.WithLabelValues("llm", "openai-compatible", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Probes.WithLabelValues("llm", "", "invalid_params")))
}

func TestNew_DefaultTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, New(nil, 0, zap.NewNop(), nil).Timeout())
}
