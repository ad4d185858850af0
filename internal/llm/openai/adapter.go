// Package openai registers the OpenAI-compatible dialect.
package openai

import "github.com/AylerH/DB-GPT/internal/llm"

func init() {
	llm.Register(llm.OpenAICompatible, llm.Adapter{
		Chat: llm.Endpoint{
			Path: "/chat/completions",
			Payload: func(model string) any {
				return ChatRequest{Model: model, Messages: llm.PingMessages(), MaxTokens: 5}
			},
		},
		Embedding: llm.Endpoint{
			Path: "/embeddings",
			Payload: func(model string) any {
				return EmbeddingRequest{Input: "test", Model: model}
			},
		},
	})
}

type ChatRequest struct {
	Model     string        `json:"model"`
	Messages  []llm.Message `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type EmbeddingRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}
