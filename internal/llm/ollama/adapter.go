// Package ollama registers the ollama native dialect.
package ollama

import "github.com/AylerH/DB-GPT/internal/llm"

func init() {
	llm.Register(llm.OllamaNative, llm.Adapter{
		Chat: llm.Endpoint{
			Path: "/api/chat",
			Payload: func(model string) any {
				return ChatRequest{Model: model, Messages: llm.PingMessages(), Stream: false}
			},
		},
		Embedding: llm.Endpoint{
			Path: "/api/embeddings",
			Payload: func(model string) any {
				return EmbeddingRequest{Model: model, Prompt: "test"}
			},
		},
	})
}

type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []llm.Message `json:"messages"`
	Stream   bool          `json:"stream"`
}

type EmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}
