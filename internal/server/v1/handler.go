// Package v1 holds the model serving HTTP handlers.
package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AylerH/DB-GPT/internal/llm"
	"github.com/AylerH/DB-GPT/internal/locator"
	"github.com/AylerH/DB-GPT/internal/prober"
	"github.com/AylerH/DB-GPT/internal/registry"
	"github.com/AylerH/DB-GPT/internal/server/validator"
	"github.com/AylerH/DB-GPT/pkg/api"
)

// Locator resolves model names to connection details.
type Locator interface {
	Locate(ctx context.Context, name string, wt api.WorkerType) (*locator.Resolution, error)
	Fallback(wt api.WorkerType) llm.ConnectionParams
}

// Prober checks connection parameters against a live backend.
type Prober interface {
	Probe(ctx context.Context, model string, wt api.WorkerType, conn llm.ConnectionParams) prober.Result
}

type Handler struct {
	registry  registry.Service
	locator   Locator
	prober    Prober
	validator *validator.Validator
}

func NewHandler(reg registry.Service, loc Locator, p Prober, v *validator.Validator) *Handler {
	return &Handler{
		registry:  reg,
		locator:   loc,
		prober:    p,
		validator: v,
	}
}

// HandleHealth always reports ok.
func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
}

// HandleTestAuth reports ok once the credential gate has passed.
func (h *Handler) HandleTestAuth(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
}

func (h *Handler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		_ = c.Error(api.ValidationFailed(h.validator.ParseError(err)))
		return false
	}
	return true
}
