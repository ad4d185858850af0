package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AylerH/DB-GPT/internal/core/domain"
	"github.com/AylerH/DB-GPT/internal/llm"
	"github.com/AylerH/DB-GPT/internal/registry"
	"github.com/AylerH/DB-GPT/pkg/api"
)

type modelDetailQuery struct {
	WorkerType string `form:"worker_type" binding:"required,worker_type"`
}

func (h *Handler) HandleListModelTypes(c *gin.Context) {
	types, err := h.registry.ListSupportedModelTypes(c.Request.Context())
	if err != nil {
		_ = c.Error(api.Fail(fmt.Sprintf("model types error %v", err), err))
		return
	}
	c.JSON(http.StatusOK, api.Succ(types))
}

func (h *Handler) HandleListModels(c *gin.Context) {
	models, err := h.registry.ListRunningInstances(c.Request.Context())
	if err != nil {
		_ = c.Error(api.Fail(fmt.Sprintf("model list error %v", err), err))
		return
	}
	c.JSON(http.StatusOK, api.Succ(models))
}

// HandleGetModel resolves a model's connection detail from storage or the
// environment fallback.
func (h *Handler) HandleGetModel(c *gin.Context) {
	var q modelDetailQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(api.ValidationFailed(h.validator.ParseError(err)))
		return
	}

	name := c.Param("model_name")
	res, err := h.locator.Locate(c.Request.Context(), name, api.WorkerType(q.WorkerType))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		_ = c.Error(api.Fail(fmt.Sprintf("Model %s not found in storage", name), nil))
		return
	case err != nil:
		_ = c.Error(api.Fail(fmt.Sprintf("get model detail error %v", err), err))
		return
	}
	c.JSON(http.StatusOK, api.Succ(res.Detail))
}

// HandleStopModel stops a worker. A failed stop stays a failure even when
// delete_after removed the stored record.
func (h *Handler) HandleStopModel(c *gin.Context) {
	var req api.WorkerStartupRequest
	if !h.bindJSON(c, &req) {
		return
	}

	err := h.registry.StopWorker(c.Request.Context(), &req)
	if err != nil {
		msg := fmt.Sprintf("model stop failed %v", err)
		var stopErr *registry.StopError
		if errors.As(err, &stopErr) && stopErr.RecordRemoved {
			msg += "; model record removed from storage"
		}
		_ = c.Error(api.Fail(msg, err))
		return
	}
	c.JSON(http.StatusOK, api.Succ(true))
}

// HandleTestModel checks the backend named by the request params. Missing
// values come from the model's stored record, then from the environment
// fallback for the worker type.
func (h *Handler) HandleTestModel(c *gin.Context) {
	var req api.WorkerStartupRequest
	if !h.bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	own := llm.FromParams(req.Params)
	conn := own.WithFallback(h.connFallback(ctx, req.Model, req.WorkerType, own), llm.ProviderOf(req.Params))

	res := h.prober.Probe(ctx, req.Model, req.WorkerType, conn)
	if !res.Success {
		_ = c.Error(api.Fail(res.Message, nil).WithData(res.Response()))
		return
	}
	c.JSON(http.StatusOK, api.Succ(res.Response()))
}

func (h *Handler) connFallback(ctx context.Context, name string, wt api.WorkerType, own llm.ConnectionParams) llm.ConnectionParams {
	if own.HasBase() {
		return h.locator.Fallback(wt)
	}
	if res, err := h.locator.Locate(ctx, name, wt); err == nil && res.Conn.HasBase() {
		return res.Conn
	}
	return h.locator.Fallback(wt)
}

// HandleCreateModel starts a worker from a complete startup request.
func (h *Handler) HandleCreateModel(c *gin.Context) {
	var req api.WorkerStartupRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.registry.CreateWorker(c.Request.Context(), &req); err != nil {
		_ = c.Error(api.Fail(fmt.Sprintf("model start failed %v", err), err))
		return
	}
	c.JSON(http.StatusOK, api.Succ(true))
}

// HandleStartModel starts the single stored model matching the request's
// identity.
func (h *Handler) HandleStartModel(c *gin.Context) {
	var req api.WorkerStartupRequest
	if !h.bindJSON(c, &req) {
		return
	}

	err := h.registry.StartWorker(c.Request.Context(), &req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, api.Succ(true))
	case errors.Is(err, domain.ErrNotFound):
		_ = c.Error(api.Fail("model not found", nil))
	case errors.Is(err, domain.ErrAmbiguous):
		_ = c.Error(api.Fail("multiple models found", err))
	default:
		_ = c.Error(api.Fail(fmt.Sprintf("model start failed %v", err), err))
	}
}
