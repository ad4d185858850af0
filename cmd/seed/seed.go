package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"go.uber.org/zap"

	"github.com/AylerH/DB-GPT/internal/config"
	"github.com/AylerH/DB-GPT/internal/store/model"
	"github.com/AylerH/DB-GPT/internal/store/sqlite"
	"github.com/AylerH/DB-GPT/pkg/api"
)

func main() {
	name := flag.String("model", "qwen2", "Model name")
	workerType := flag.String("worker-type", "llm", "Worker type: llm, text2vec or reranker")
	host := flag.String("host", "127.0.0.1", "Worker host")
	port := flag.Int("port", 8001, "Worker port")
	apiBase := flag.String("api-base", "http://localhost:11434", "Backend base URL stored in params")
	apiKey := flag.String("api-key", "", "Backend key stored in params")
	provider := flag.String("provider", "proxy/ollama", "Provider stored in params")
	userName := flag.String("user", "", "Owning user")
	sysCode := flag.String("sys-code", "", "Owning system code")
	flag.Parse()

	wt, err := api.ParseWorkerType(*workerType)
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	repo, err := sqlite.NewSQLiteStorage(cfg.Database.DSN, zap.NewNop())
	if err != nil {
		log.Fatal(err)
	}
	defer repo.Close()

	params := model.Params{"api_base": *apiBase, "provider": *provider}
	if *apiKey != "" {
		params["api_key"] = *apiKey
	}

	rec := &model.StoredModel{
		Host:       *host,
		Port:       *port,
		Model:      *name,
		WorkerType: wt.String(),
		Params:     params,
		Enabled:    true,
		SysCode:    *sysCode,
		UserName:   *userName,
	}

	if err := repo.Models().Save(context.Background(), rec); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Seeded model %s@%s\n", rec.Model, rec.WorkerType)
	fmt.Printf("Resolve it with: GET %s/models/%s?worker_type=%s\n", cfg.Server.APIPrefix, rec.Model, rec.WorkerType)
}
