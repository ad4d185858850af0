// Package locator resolves a model name to connection parameters, first from
// model storage and then from environment-derived fallback configuration.
package locator

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/AylerH/DB-GPT/internal/config"
	"github.com/AylerH/DB-GPT/internal/core/domain"
	"github.com/AylerH/DB-GPT/internal/llm"
	"github.com/AylerH/DB-GPT/internal/store/model"
	"github.com/AylerH/DB-GPT/pkg/api"
)

// EnvHost marks a detail synthesized from the environment.
const EnvHost = "env"

var loopbackHosts = []string{"localhost", "127.0.0.1"}

// Storage is the lookup side of model storage.
type Storage interface {
	Query(ctx context.Context, q model.Query) ([]model.StoredModel, error)
}

// Resolution is the outcome of a successful Locate.
type Resolution struct {
	Detail api.ModelDetail
	Conn   llm.ConnectionParams
}

type Locator struct {
	storage     Storage
	fallback    config.FallbackConfig
	inContainer bool
	bridgeHost  string
	logger      *zap.Logger
}

// New builds a Locator. Container detection runs once here.
func New(storage Storage, fallback config.FallbackConfig, container config.ContainerConfig, logger *zap.Logger) *Locator {
	return &Locator{
		storage:     storage,
		fallback:    fallback,
		inContainer: container.InContainer(),
		bridgeHost:  container.BridgeHost,
		logger:      logger.Named("locator"),
	}
}

// Locate resolves name for worker type wt. It returns domain.ErrNotFound when
// neither storage nor the environment yields a record.
func (l *Locator) Locate(ctx context.Context, name string, wt api.WorkerType) (*Resolution, error) {
	// disabled records stay eligible
	found, err := l.storage.Query(ctx, model.Query{Model: name, WorkerType: string(wt)})
	if err != nil {
		return nil, domain.Delegate("model storage query", err)
	}
	if len(found) > 0 {
		if len(found) > 1 {
			l.logger.Debug("multiple stored records, using first",
				zap.String("model", name), zap.Int("matches", len(found)))
		}
		rec := found[0]
		return &Resolution{
			Detail: rec.Detail(),
			Conn:   llm.FromParams(rec.Params),
		}, nil
	}

	conn, authoritative := l.envParams(name, wt)
	if !conn.HasBase() {
		return nil, domain.ErrNotFound
	}
	if !authoritative && l.fallback.Strict {
		l.logger.Debug("environment fallback rejected in strict mode", zap.String("model", name))
		return nil, domain.ErrNotFound
	}

	l.logger.Debug("resolved from environment",
		zap.String("model", name),
		zap.String("worker_type", wt.String()),
		zap.Stringer("conn", conn),
		zap.Bool("authoritative", authoritative))

	return &Resolution{
		Detail: api.ModelDetail{
			Host:       EnvHost,
			Port:       0,
			Model:      name,
			WorkerType: wt,
			Params:     envDetailParams(conn),
		},
		Conn: conn,
	}, nil
}

// Fallback returns the environment connection settings for wt regardless of
// model name. Base is empty when nothing is configured.
func (l *Locator) Fallback(wt api.WorkerType) llm.ConnectionParams {
	conn, _ := l.envParams("", wt)
	return conn
}

func (l *Locator) envParams(name string, wt api.WorkerType) (llm.ConnectionParams, bool) {
	var base, key string
	var authoritative bool

	if wt.IsEmbedding() {
		base, key = l.fallback.EmbeddingAPIBase, l.fallback.EmbeddingAPIKey
		authoritative = name != "" && name == l.fallback.EmbeddingModelName
	} else {
		base, key = l.fallback.LLMAPIBase, l.fallback.LLMAPIKey
		authoritative = name != "" && slices.Contains(l.fallback.LLMModels, name)
	}

	base = l.rewriteLoopback(base)
	if base == "" {
		return llm.ConnectionParams{}, false
	}
	return llm.NewConnectionParams(base, key), authoritative
}

// rewriteLoopback points loopback hosts at the container bridge.
func (l *Locator) rewriteLoopback(base string) string {
	if !l.inContainer || l.bridgeHost == "" {
		return base
	}
	for _, h := range loopbackHosts {
		base = strings.ReplaceAll(base, h, l.bridgeHost)
	}
	return base
}

func envDetailParams(conn llm.ConnectionParams) map[string]any {
	var key any
	if conn.APIKey != "" {
		key = conn.APIKey
	}
	return map[string]any{
		"api_url":  conn.APIBase,
		"api_base": conn.APIBase,
		"api_key":  key,
		"provider": conn.Dialect.ProviderTag(),
	}
}
