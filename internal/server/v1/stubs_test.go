package v1

import (
	"context"

	"github.com/AylerH/DB-GPT/internal/store/model"
	"github.com/AylerH/DB-GPT/pkg/api"
)

type stubWorkers struct {
	shutdownErr  error
	lastShutdown *api.WorkerStartupRequest
}

func (s *stubWorkers) SupportedModels(context.Context) ([]api.WorkerSupportedModel, error) {
	return nil, nil
}

func (s *stubWorkers) Startup(context.Context, *api.WorkerStartupRequest) error {
	return nil
}

func (s *stubWorkers) Shutdown(_ context.Context, req *api.WorkerStartupRequest) error {
	s.lastShutdown = req
	return s.shutdownErr
}

type stubController struct{}

func (stubController) GetAllInstances(context.Context, string, bool) ([]api.ModelInstance, error) {
	return nil, nil
}

type stubStorage struct {
	deleted []api.ModelIdentity
}

func (s *stubStorage) Query(context.Context, model.Query) ([]model.StoredModel, error) {
	return nil, nil
}

func (s *stubStorage) Save(context.Context, *model.StoredModel) error {
	return nil
}

func (s *stubStorage) Delete(_ context.Context, id api.ModelIdentity) error {
	s.deleted = append(s.deleted, id)
	return nil
}
