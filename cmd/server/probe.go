package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AylerH/DB-GPT/internal/cli"
	"github.com/AylerH/DB-GPT/internal/config"
	"github.com/AylerH/DB-GPT/internal/llm"
	"github.com/AylerH/DB-GPT/internal/locator"
	"github.com/AylerH/DB-GPT/internal/prober"
	"github.com/AylerH/DB-GPT/pkg/api"
)

func newProbeCmd() *cobra.Command {
	var (
		model      string
		workerType string
		apiBase    string
		apiKey     string
		provider   string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Send one test request to a model backend",
		Example: `  model-serve probe --model qwen2 --api-base http://localhost:11434
  model-serve probe --model bge-m3 --worker-type text2vec --api-base https://api.openai.com/v1 --api-key sk-...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			wt, err := api.ParseWorkerType(workerType)
			if err != nil {
				return err
			}

			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if timeout <= 0 {
				timeout = cfg.Probe.Timeout
			}

			params := map[string]any{"api_base": apiBase, "api_key": apiKey, "provider": provider}
			fallback := locator.New(nil, cfg.Fallback, cfg.Container, zap.NewNop()).Fallback(wt)
			conn := llm.FromParams(params).WithFallback(fallback, provider)

			res := prober.New(&http.Client{}, timeout, zap.NewNop(), nil).Probe(cmd.Context(), model, wt, conn)

			mark := cli.CheckMark()
			if !res.Success {
				mark = cli.CrossMark()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", mark, res.Message, conn)
			fmt.Fprintln(cmd.OutOrStdout(), cli.PrettyFormat(res.Response()))

			if !res.Success {
				return fmt.Errorf("probe failed: %s", res.Kind)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "Model name sent in the test payload")
	cmd.Flags().StringVarP(&workerType, "worker-type", "t", string(api.LLM), "Worker type: llm, text2vec or reranker")
	cmd.Flags().StringVar(&apiBase, "api-base", "", "Backend base URL (falls back to the environment)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Bearer key (falls back to the environment)")
	cmd.Flags().StringVar(&provider, "provider", "", "Provider hint, e.g. proxy/ollama")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Probe timeout (defaults to probe.timeout)")
	_ = cmd.MarkFlagRequired("model")

	return cmd
}
