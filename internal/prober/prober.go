// Package prober performs one live request against a model backend to check
// that its connection parameters work.
package prober

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/AylerH/DB-GPT/internal/httpclient"
	"github.com/AylerH/DB-GPT/internal/llm"
	_ "github.com/AylerH/DB-GPT/internal/llm/ollama"
	_ "github.com/AylerH/DB-GPT/internal/llm/openai"
	"github.com/AylerH/DB-GPT/internal/platform/metrics"
	"github.com/AylerH/DB-GPT/pkg/api"
)

const (
	DefaultTimeout = 60 * time.Second

	// maxBody is how much of a failed response is kept for the message.
	maxBody = 2 << 10
)

// Kind classifies a probe outcome.
type Kind string

const (
	KindOK               Kind = ""
	KindInvalidParams    Kind = "invalid_params"
	KindTimedOut         Kind = "timed_out"
	KindConnectionFailed Kind = "connection_failed"
	KindBadStatus        Kind = "bad_status"
)

// Result is the outcome of a probe. A failed probe is a normal result, not an
// error.
type Result struct {
	Success    bool
	StatusCode int
	Kind       Kind
	URL        string
	Message    string
}

func (r Result) Response() api.ProbeResponse {
	return api.ProbeResponse{
		Success:    r.Success,
		StatusCode: r.StatusCode,
		Kind:       string(r.Kind),
		URL:        r.URL,
		Message:    r.Message,
	}
}

func (r Result) outcome() string {
	if r.Success {
		return "success"
	}
	return string(r.Kind)
}

type Prober struct {
	client  httpclient.HTTPClient
	timeout time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New builds a Prober. A non-positive timeout means DefaultTimeout. m may be nil.
func New(client httpclient.HTTPClient, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Prober{
		client:  client,
		timeout: timeout,
		logger:  logger.Named("prober"),
		metrics: m,
	}
}

func (p *Prober) Timeout() time.Duration {
	return p.timeout
}

// Probe sends exactly one request for model to conn and reports the outcome.
// Only HTTP 200 counts as success. The request never outlives the configured
// timeout.
func (p *Prober) Probe(ctx context.Context, model string, wt api.WorkerType, conn llm.ConnectionParams) Result {
	res := p.probe(ctx, model, wt, conn)
	p.metrics.ObserveProbe(wt.String(), conn.Dialect.String(), res.outcome())

	fields := []zap.Field{
		zap.String("model", model),
		zap.String("worker_type", wt.String()),
		zap.String("dialect", conn.Dialect.String()),
		zap.String("url", res.URL),
	}
	if res.Success {
		p.logger.Info("probe succeeded", fields...)
	} else {
		p.logger.Warn("probe failed", append(fields, zap.String("kind", string(res.Kind)), zap.String("message", res.Message))...)
	}
	return res
}

func (p *Prober) probe(ctx context.Context, model string, wt api.WorkerType, conn llm.ConnectionParams) Result {
	if !conn.HasBase() {
		return Result{
			Kind:    KindInvalidParams,
			Message: "API Base URL is required for testing. Please provide api_url in the form or set environment variables.",
		}
	}

	adapter, err := llm.Get(conn.Dialect)
	if err != nil {
		return Result{Kind: KindInvalidParams, Message: err.Error()}
	}
	endpoint := adapter.Endpoint(wt.IsEmbedding())
	url := llm.JoinPath(conn.APIBase, endpoint.Path)

	headers := map[string]string{}
	if conn.APIKey != "" {
		headers["Authorization"] = "Bearer " + conn.APIKey
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := httpclient.Exchange(ctx, p.client, http.MethodPost, url, headers, endpoint.Payload(model), maxBody)
	if err != nil {
		if isTimeout(ctx, err) {
			return Result{
				Kind:    KindTimedOut,
				URL:     url,
				Message: fmt.Sprintf("Connection timed out after %s connecting to %s", formatSeconds(p.timeout), url),
			}
		}
		return Result{
			Kind:    KindConnectionFailed,
			URL:     url,
			Message: fmt.Sprintf("Connection failed: %v URL: %s", err, url),
		}
	}

	if resp.StatusCode != http.StatusOK {
		if msg := httpclient.ErrorMessage(resp.Body); msg != "" {
			p.logger.Debug("upstream error body", zap.String("url", url), zap.String("error", msg))
		}
		return Result{
			StatusCode: resp.StatusCode,
			Kind:       KindBadStatus,
			URL:        url,
			Message:    fmt.Sprintf("Connection failed: %d %s", resp.StatusCode, string(resp.Body)),
		}
	}

	return Result{
		Success:    true,
		StatusCode: resp.StatusCode,
		URL:        url,
		Message:    "Connection successful",
	}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64) + "s"
}
