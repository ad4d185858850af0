// Package cluster holds the contracts of the collaborators that own worker
// lifecycle and instance registration, and HTTP clients for them.
package cluster

import (
	"context"

	"github.com/AylerH/DB-GPT/pkg/api"
)

// WorkerManager starts and stops model workers.
type WorkerManager interface {
	SupportedModels(ctx context.Context) ([]api.WorkerSupportedModel, error)
	Startup(ctx context.Context, req *api.WorkerStartupRequest) error
	Shutdown(ctx context.Context, req *api.WorkerStartupRequest) error
}

// ModelController tracks registered instances and their health.
type ModelController interface {
	// GetAllInstances lists instances. An empty modelName matches all of them.
	GetAllInstances(ctx context.Context, modelName string, healthyOnly bool) ([]api.ModelInstance, error)
}
