package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AylerH/DB-GPT/internal/core/domain"
	"github.com/AylerH/DB-GPT/internal/store"
	"github.com/AylerH/DB-GPT/internal/store/model"
	"github.com/AylerH/DB-GPT/pkg/api"
)

func newTestRepo(t *testing.T) *SqliteRepository {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	repo, err := NewSQLiteStorage(dsn, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestModelRepo_SaveQueryDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	models := repo.Models()

	first := &model.StoredModel{
		Host:       "10.0.0.1",
		Port:       8001,
		Model:      "qwen2",
		WorkerType: "llm",
		Params:     model.Params{"api_base": "http://localhost:11434", "provider": "proxy/ollama"},
		Enabled:    false,
	}
	require.NoError(t, models.Save(ctx, first))
	require.NotEmpty(t, first.ID)

	second := &model.StoredModel{
		Host:       "10.0.0.2",
		Port:       8002,
		Model:      "qwen2",
		WorkerType: "llm",
		Enabled:    true,
		UserName:   "alice",
		CreatedAt:  first.CreatedAt.Add(time.Second),
	}
	require.NoError(t, models.Save(ctx, second))

	got, err := models.Query(ctx, model.Query{Model: "qwen2", WorkerType: "llm"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "10.0.0.1", got[0].Host, "oldest record first")
	assert.False(t, got[0].Enabled, "disabled records are returned")
	assert.Equal(t, "proxy/ollama", got[0].Params["provider"])

	enabled := true
	got, err = models.Query(ctx, model.Query{Model: "qwen2", Enabled: &enabled})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].UserName)

	got, err = models.Query(ctx, model.Query{Model: "qwen2", Host: "10.0.0.2", Port: 8002})
	require.NoError(t, err)
	require.Len(t, got, 1)

	require.NoError(t, models.Delete(ctx, first.Identity()))
	got, err = models.Query(ctx, model.Query{Model: "qwen2"})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	err = models.Delete(ctx, first.Identity())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestModelRepo_SaveUpserts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	m := &model.StoredModel{Model: "bge-m3", WorkerType: "text2vec", Port: 1}
	require.NoError(t, repo.Models().Save(ctx, m))

	again := &model.StoredModel{Model: "bge-m3", WorkerType: "text2vec", Port: 2}
	require.NoError(t, repo.Models().Save(ctx, again))

	got, err := repo.Models().Query(ctx, model.Query{Model: "bge-m3"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Port)
	assert.Equal(t, m.ID, got[0].ID)
}

func TestWithTx_RollsBack(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repo.WithTx(ctx, func(tx store.Repository) error {
		if err := tx.Models().Save(ctx, &model.StoredModel{Model: "m", WorkerType: "llm"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.Models().Query(ctx, model.Query{Model: "m"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestModelRepo_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSqliteRepository(sqlx.NewDb(db, "sqlite3"))

	mock.ExpectQuery(`SELECT .* FROM models WHERE model = \? AND worker_type = \?`).
		WithArgs("qwen2", "llm").
		WillReturnError(errors.New("disk I/O error"))

	_, err = repo.Models().Query(context.Background(), model.Query{Model: "qwen2", WorkerType: "llm"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModelRepo_DeleteUsesFullIdentity(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSqliteRepository(sqlx.NewDb(db, "sqlite3"))

	mock.ExpectExec(`DELETE FROM models WHERE model = \? AND worker_type = \? AND sys_code = \? AND user_name = \?`).
		WithArgs("qwen2", "llm", "sys", "bob").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Models().Delete(context.Background(), api.ModelIdentity{
		Model: "qwen2", WorkerType: api.LLM, SysCode: "sys", UserName: "bob",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParamsScan(t *testing.T) {
	var p model.Params
	require.NoError(t, p.Scan(`{"api_key":"k"}`))
	assert.Equal(t, "k", p["api_key"])

	require.NoError(t, p.Scan(nil))
	assert.Empty(t, p)

	assert.Error(t, p.Scan(42))
}

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "file:model_serve.db", redactDSN("file:model_serve.db?_busy_timeout=5000"))
	assert.Equal(t, "plain.db", redactDSN("plain.db"))
}
