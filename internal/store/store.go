package store

import (
	"context"

	"github.com/AylerH/DB-GPT/internal/store/model"
	"github.com/AylerH/DB-GPT/pkg/api"
)

// Repository is the main contract for the data layer.
type Repository interface {
	Models() ModelRepository

	// transaction support
	WithTx(ctx context.Context, fn func(repo Repository) error) error

	Close() error
}

// ModelRepository persists model registrations.
type ModelRepository interface {
	// Query returns records matching every non-zero field of q, oldest first.
	Query(ctx context.Context, q model.Query) ([]model.StoredModel, error)
	// Save inserts or replaces the record with the same identity.
	Save(ctx context.Context, m *model.StoredModel) error
	// Delete removes the record for id. It returns domain.ErrNotFound when
	// nothing matched.
	Delete(ctx context.Context, id api.ModelIdentity) error
}
