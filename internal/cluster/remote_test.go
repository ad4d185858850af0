package cluster

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AylerH/DB-GPT/internal/core/domain"
	"github.com/AylerH/DB-GPT/internal/httpclient"
	"github.com/AylerH/DB-GPT/internal/store/cache"
	"github.com/AylerH/DB-GPT/pkg/api"
)

func TestRemoteWorkerManager_SupportedModelsCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/worker/models/supports", r.URL.Path)
		hits.Add(1)
		_, _ = w.Write([]byte(`[{"host":"10.0.0.1","port":8000,"models":[{"model":"qwen2","worker_type":"llm","enabled":true}]}]`))
	}))
	defer srv.Close()

	wm := NewRemoteWorkerManager(srv.URL+"/", srv.Client(), cache.NewMemoryCache(), time.Minute, zap.NewNop())

	for i := 0; i < 3; i++ {
		workers, err := wm.SupportedModels(context.Background())
		require.NoError(t, err)
		require.Len(t, workers, 1)
		assert.Equal(t, "qwen2", workers[0].Models[0].Model)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestRemoteWorkerManager_StartupInvalidatesCache(t *testing.T) {
	var listHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/worker/models/supports":
			listHits.Add(1)
			_, _ = w.Write([]byte(`[]`))
		case "/api/worker/models/startup":
			var req api.WorkerStartupRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "qwen2", req.Model)
			_, _ = w.Write([]byte(`{"success":true,"data":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	wm := NewRemoteWorkerManager(srv.URL, srv.Client(), cache.NewMemoryCache(), time.Minute, zap.NewNop())
	ctx := context.Background()

	_, err := wm.SupportedModels(ctx)
	require.NoError(t, err)
	require.NoError(t, wm.Startup(ctx, &api.WorkerStartupRequest{Model: "qwen2", WorkerType: api.LLM}))
	_, err = wm.SupportedModels(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(2), listHits.Load())
}

func TestRemoteWorkerManager_EnvelopeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"err_code":"E0001","err_msg":"worker not running"}`))
	}))
	defer srv.Close()

	wm := NewRemoteWorkerManager(srv.URL, srv.Client(), nil, 0, zap.NewNop())
	err := wm.Shutdown(context.Background(), &api.WorkerStartupRequest{Model: "qwen2", WorkerType: api.LLM})

	require.Error(t, err)
	assert.True(t, domain.IsDelegate(err))
	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, "worker not running", remote.Message)
}

func TestRemoteWorkerManager_HTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	wm := NewRemoteWorkerManager(srv.URL, srv.Client(), nil, 0, zap.NewNop())
	_, err := wm.SupportedModels(context.Background())

	var upstream *httpclient.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusServiceUnavailable, upstream.StatusCode)
}

func TestRemoteWorkerManager_EmptyBodyIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wm := NewRemoteWorkerManager(srv.URL, srv.Client(), nil, 0, zap.NewNop())
	assert.NoError(t, wm.Startup(context.Background(), &api.WorkerStartupRequest{Model: "m", WorkerType: api.LLM}))
}

func TestRemoteController_GetAllInstances(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/controller/models", r.URL.Path)
		assert.Equal(t, "WorkerManager@service", r.URL.Query().Get("model_name"))
		assert.Equal(t, "true", r.URL.Query().Get("healthy_only"))
		_, _ = w.Write([]byte(`{"success":true,"data":[{"model_name":"WorkerManager@service","host":"10.0.0.1","port":8000,"healthy":true}]}`))
	}))
	defer srv.Close()

	c := NewRemoteController(srv.URL, srv.Client())
	got, err := c.GetAllInstances(context.Background(), "WorkerManager@service", true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 8000, got[0].Port)
	assert.True(t, got[0].Healthy)
}

func TestRemoteController_AllModelsOmitsName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.URL.Query()["model_name"]
		assert.False(t, present)
		assert.Equal(t, "false", r.URL.Query().Get("healthy_only"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	got, err := NewRemoteController(srv.URL, srv.Client()).GetAllInstances(context.Background(), "", false)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUnwrap(t *testing.T) {
	var n int
	require.NoError(t, unwrap(json.RawMessage(`5`), &n))
	assert.Equal(t, 5, n)

	require.NoError(t, unwrap(json.RawMessage(`{"success":true,"data":7}`), &n))
	assert.Equal(t, 7, n)

	err := unwrap(json.RawMessage(`{"success":false}`), nil)
	assert.EqualError(t, err, "remote call failed")

	assert.Error(t, unwrap(json.RawMessage(`{not json`), nil))
	assert.NoError(t, unwrap(nil, &n))
}
