package cluster

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AylerH/DB-GPT/internal/core/domain"
	"github.com/AylerH/DB-GPT/internal/httpclient"
	"github.com/AylerH/DB-GPT/internal/store/cache"
	"github.com/AylerH/DB-GPT/pkg/api"
)

const supportedModelsKey = "cluster:supported_models"

// RemoteWorkerManager talks to a worker manager over its HTTP API.
type RemoteWorkerManager struct {
	baseURL string
	client  httpclient.HTTPClient
	cache   cache.CacheService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewRemoteWorkerManager builds a client for baseURL. Supported-model listings
// are cached for ttl when c is non-nil and ttl is positive.
func NewRemoteWorkerManager(baseURL string, client httpclient.HTTPClient, c cache.CacheService, ttl time.Duration, logger *zap.Logger) *RemoteWorkerManager {
	return &RemoteWorkerManager{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		cache:   c,
		ttl:     ttl,
		logger:  logger.Named("worker_manager"),
	}
}

func (m *RemoteWorkerManager) SupportedModels(ctx context.Context) ([]api.WorkerSupportedModel, error) {
	var workers []api.WorkerSupportedModel
	if m.cacheEnabled() {
		err := m.cache.Get(ctx, supportedModelsKey, &workers)
		if err == nil {
			return workers, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			m.logger.Warn("supported models cache read failed", zap.Error(err))
		}
	}

	if err := m.call(ctx, http.MethodGet, "/api/worker/models/supports", nil, &workers); err != nil {
		return nil, domain.Delegate("worker manager supported models", err)
	}

	if m.cacheEnabled() {
		if err := m.cache.Set(ctx, supportedModelsKey, workers, m.ttl); err != nil {
			m.logger.Warn("supported models cache write failed", zap.Error(err))
		}
	}
	return workers, nil
}

func (m *RemoteWorkerManager) Startup(ctx context.Context, req *api.WorkerStartupRequest) error {
	defer m.invalidate(ctx)
	return domain.Delegate("worker manager startup", m.call(ctx, http.MethodPost, "/api/worker/models/startup", req, nil))
}

func (m *RemoteWorkerManager) Shutdown(ctx context.Context, req *api.WorkerStartupRequest) error {
	defer m.invalidate(ctx)
	return domain.Delegate("worker manager shutdown", m.call(ctx, http.MethodPost, "/api/worker/models/shutdown", req, nil))
}

func (m *RemoteWorkerManager) cacheEnabled() bool {
	return m.cache != nil && m.ttl > 0
}

func (m *RemoteWorkerManager) invalidate(ctx context.Context) {
	if !m.cacheEnabled() {
		return
	}
	if err := m.cache.Delete(ctx, supportedModelsKey); err != nil {
		m.logger.Warn("supported models cache invalidation failed", zap.Error(err))
	}
}

func (m *RemoteWorkerManager) call(ctx context.Context, method, path string, body, out any) error {
	var raw json.RawMessage
	if err := httpclient.SendRequest(ctx, m.client, method, m.baseURL+path, nil, body, &raw); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return unwrap(raw, out)
}

// RemoteController queries a model controller over its HTTP API.
type RemoteController struct {
	baseURL string
	client  httpclient.HTTPClient
}

func NewRemoteController(baseURL string, client httpclient.HTTPClient) *RemoteController {
	return &RemoteController{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (c *RemoteController) GetAllInstances(ctx context.Context, modelName string, healthyOnly bool) ([]api.ModelInstance, error) {
	q := url.Values{}
	if modelName != "" {
		q.Set("model_name", modelName)
	}
	q.Set("healthy_only", strconv.FormatBool(healthyOnly))

	var raw json.RawMessage
	endpoint := c.baseURL + "/api/controller/models?" + q.Encode()
	if err := httpclient.SendRequest(ctx, c.client, http.MethodGet, endpoint, nil, nil, &raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, domain.Delegate("model controller list instances", err)
	}

	var instances []api.ModelInstance
	if err := unwrap(raw, &instances); err != nil {
		return nil, domain.Delegate("model controller list instances", err)
	}
	return instances, nil
}
