// Package registry is the facade over the worker manager, the model
// controller and model storage used by the model endpoints.
package registry

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/AylerH/DB-GPT/internal/cluster"
	"github.com/AylerH/DB-GPT/internal/core/domain"
	"github.com/AylerH/DB-GPT/internal/store"
	"github.com/AylerH/DB-GPT/internal/store/model"
	"github.com/AylerH/DB-GPT/pkg/api"
)

// ManagerInstanceName is how worker managers register with the controller.
var ManagerInstanceName = api.InstanceName("WorkerManager", api.ServiceSuffix)

// UnknownManagerPort marks an instance with no known manager.
const UnknownManagerPort = -1

// Service defines the registry operations exposed over HTTP.
type Service interface {
	// ListSupportedModelTypes flattens the models every worker manager can
	// launch, annotated with the manager's host and port.
	ListSupportedModelTypes(ctx context.Context) ([]api.SupportedModel, error)
	// ListRunningInstances lists model workers with their managing host/port.
	ListRunningInstances(ctx context.Context) ([]api.ModelResponse, error)
	// CreateWorker starts a worker from a complete startup request.
	CreateWorker(ctx context.Context, req *api.WorkerStartupRequest) error
	// StartWorker starts the single stored model matching the identity fields
	// of req.
	StartWorker(ctx context.Context, req *api.WorkerStartupRequest) error
	// StopWorker stops a worker, optionally removing its stored record when
	// the stop fails.
	StopWorker(ctx context.Context, req *api.WorkerStartupRequest) error
}

// StopError is returned when the worker manager failed to stop a worker.
// RecordRemoved reports whether the stored record was force-deleted anyway.
type StopError struct {
	Err           error
	RecordRemoved bool
}

func (e *StopError) Error() string {
	return e.Err.Error()
}

func (e *StopError) Unwrap() error {
	return e.Err
}

type service struct {
	logger     *zap.Logger
	workers    cluster.WorkerManager
	controller cluster.ModelController
	storage    store.ModelRepository
}

func NewService(logger *zap.Logger, workers cluster.WorkerManager, controller cluster.ModelController, storage store.ModelRepository) Service {
	return &service{
		logger:     logger.Named("registry"),
		workers:    workers,
		controller: controller,
		storage:    storage,
	}
}

func (s *service) ListSupportedModelTypes(ctx context.Context) ([]api.SupportedModel, error) {
	workers, err := s.workers.SupportedModels(ctx)
	if err != nil {
		return nil, domain.Delegate("list supported models", err)
	}

	out := make([]api.SupportedModel, 0)
	for _, w := range workers {
		for _, m := range w.Models {
			m.Host = w.Host
			m.Port = w.Port
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *service) ListRunningInstances(ctx context.Context) ([]api.ModelResponse, error) {
	managers, err := s.controller.GetAllInstances(ctx, ManagerInstanceName, true)
	if err != nil {
		return nil, domain.Delegate("list manager instances", err)
	}
	managerByHost := make(map[string]api.ModelInstance, len(managers))
	for _, m := range managers {
		managerByHost[m.Host] = m
	}

	instances, err := s.controller.GetAllInstances(ctx, "", false)
	if err != nil {
		return nil, domain.Delegate("list model instances", err)
	}

	out := make([]api.ModelResponse, 0, len(instances))
	for _, inst := range instances {
		name, wt, ok := api.SplitInstanceName(inst.ModelName)
		if !ok || !api.WorkerType(wt).Valid() {
			continue
		}

		resp := api.ModelResponse{
			ModelName:      name,
			WorkerType:     wt,
			Host:           inst.Host,
			Port:           inst.Port,
			ManagerHost:    "",
			ManagerPort:    UnknownManagerPort,
			Healthy:        inst.Healthy,
			CheckHealthy:   inst.CheckHealthy,
			LastHeartbeat:  inst.LastHeartbeat,
			PromptTemplate: inst.PromptTemplate,
		}
		if mgr, found := managerByHost[inst.Host]; found {
			resp.ManagerHost = inst.Host
			resp.ManagerPort = mgr.Port
		}
		out = append(out, resp)
	}
	return out, nil
}

func (s *service) CreateWorker(ctx context.Context, req *api.WorkerStartupRequest) error {
	return domain.Delegate("start worker", s.workers.Startup(ctx, req))
}

func (s *service) StartWorker(ctx context.Context, req *api.WorkerStartupRequest) error {
	found, err := s.storage.Query(ctx, model.Query{
		Model:      req.Model,
		WorkerType: string(req.WorkerType),
		UserName:   req.UserName,
		SysCode:    req.SysCode,
		Host:       req.Host,
		Port:       req.Port,
	})
	if err != nil {
		return domain.Delegate("model storage query", err)
	}

	switch len(found) {
	case 0:
		return domain.ErrNotFound
	case 1:
	default:
		return fmt.Errorf("%w: %d records for %s", domain.ErrAmbiguous, len(found), req.Model)
	}

	return domain.Delegate("start worker", s.workers.Startup(ctx, found[0].StartupRequest()))
}

func (s *service) StopWorker(ctx context.Context, req *api.WorkerStartupRequest) error {
	// stop never carries model-load parameters
	stop := *req
	stop.Params = map[string]any{}

	err := s.workers.Shutdown(ctx, &stop)
	if err == nil {
		return nil
	}

	stopErr := &StopError{Err: domain.Delegate("stop worker", err)}
	if !req.DeleteAfter {
		return stopErr
	}

	id := req.Identity()
	if delErr := s.storage.Delete(ctx, id); delErr != nil {
		s.logger.Error("failed to force delete model",
			zap.String("model", id.Model),
			zap.String("worker_type", id.WorkerType.String()),
			zap.Error(delErr))
		return stopErr
	}

	s.logger.Info("force deleted model from storage",
		zap.String("model", id.Model),
		zap.String("worker_type", id.WorkerType.String()))
	stopErr.RecordRemoved = true
	return stopErr
}
