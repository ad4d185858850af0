package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/AylerH/DB-GPT/internal/core/domain"
	"github.com/AylerH/DB-GPT/internal/store"
	"github.com/AylerH/DB-GPT/internal/store/model"
	"github.com/AylerH/DB-GPT/pkg/api"
)

// DB defines the interface for database operations (satisfied by *sqlx.DB and *sqlx.Tx)
type DB interface {
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SqliteRepository implements store.Repository
type SqliteRepository struct {
	db       *sqlx.DB // Required for starting new transactions
	executor DB       // Used for actual queries (can be *sqlx.DB or *sqlx.Tx)
}

func NewSqliteRepository(db *sqlx.DB) *SqliteRepository {
	return &SqliteRepository{
		db:       db,
		executor: db,
	}
}

func (r *SqliteRepository) Close() error {
	return r.db.Close()
}

func (r *SqliteRepository) WithTx(ctx context.Context, fn func(repo store.Repository) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	txRepo := &SqliteRepository{
		db:       r.db,
		executor: tx,
	}

	if err := fn(txRepo); err != nil {
		// attempt rollback, but prioritize original error
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (r *SqliteRepository) Models() store.ModelRepository {
	return &modelRepo{db: r.executor, now: time.Now}
}

type modelRepo struct {
	db  DB
	now func() time.Time
}

const modelColumns = `id, host, port, model, worker_type, params, enabled, sys_code, user_name, created_at, updated_at`

func (r *modelRepo) Query(ctx context.Context, q model.Query) ([]model.StoredModel, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		where = append(where, clause)
		args = append(args, arg)
	}

	if q.Model != "" {
		add("model = ?", q.Model)
	}
	if q.WorkerType != "" {
		add("worker_type = ?", q.WorkerType)
	}
	if q.Enabled != nil {
		add("enabled = ?", *q.Enabled)
	}
	if q.UserName != "" {
		add("user_name = ?", q.UserName)
	}
	if q.SysCode != "" {
		add("sys_code = ?", q.SysCode)
	}
	if q.Host != "" {
		add("host = ?", q.Host)
	}
	if q.Port != 0 {
		add("port = ?", q.Port)
	}

	query := `SELECT ` + modelColumns + ` FROM models`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at ASC, id ASC`

	var models []model.StoredModel
	if err := r.db.SelectContext(ctx, &models, query, args...); err != nil {
		return nil, fmt.Errorf("query models: %w", err)
	}
	return models, nil
}

func (r *modelRepo) Save(ctx context.Context, m *model.StoredModel) error {
	now := r.now().UTC()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	query := `
	INSERT INTO models (` + modelColumns + `)
	VALUES (:id, :host, :port, :model, :worker_type, :params, :enabled, :sys_code, :user_name, :created_at, :updated_at)
	ON CONFLICT (model, worker_type, sys_code, user_name) DO UPDATE SET
		host = excluded.host,
		port = excluded.port,
		params = excluded.params,
		enabled = excluded.enabled,
		updated_at = excluded.updated_at`

	if _, err := r.db.NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("save model %s: %w", m.Model, err)
	}
	return nil
}

func (r *modelRepo) Delete(ctx context.Context, id api.ModelIdentity) error {
	query := `DELETE FROM models WHERE model = ? AND worker_type = ? AND sys_code = ? AND user_name = ?`
	res, err := r.db.ExecContext(ctx, query, id.Model, string(id.WorkerType), id.SysCode, id.UserName)
	if err != nil {
		return fmt.Errorf("delete model %s: %w", id.Model, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete model %s: %w", id.Model, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
