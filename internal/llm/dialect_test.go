package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferDialect(t *testing.T) {
	tests := []struct {
		base string
		want Dialect
	}{
		{"http://localhost:11434", OllamaNative},
		{"http://host.docker.internal:11434/", OllamaNative},
		{"https://my-OLLAMA-box.internal/v1", OllamaNative},
		{"https://api.openai.com/v1", OpenAICompatible},
		{"http://127.0.0.1:8000/v1", OpenAICompatible},
		{"", OpenAICompatible},
	}

	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			assert.Equal(t, tt.want, InferDialect(tt.base))
		})
	}
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "https://host/v1/chat/completions", JoinPath("https://host/v1", "/chat/completions"))
	assert.Equal(t, "https://host/v1/chat/completions", JoinPath("https://host/v1/", "/chat/completions"))
	assert.Equal(t, "https://host/v1/embeddings", JoinPath("https://host/v1//", "embeddings"))
}

func TestFromParams(t *testing.T) {
	t.Run("first non-empty base wins", func(t *testing.T) {
		p := FromParams(map[string]any{
			"api_base":        "",
			"openai_api_base": "https://api.openai.com/v1",
			"api_url":         "http://localhost:11434",
			"openai_api_key":  "sk-test",
		})
		assert.Equal(t, "https://api.openai.com/v1", p.APIBase)
		assert.Equal(t, "sk-test", p.APIKey)
		assert.Equal(t, OpenAICompatible, p.Dialect)
	})

	t.Run("explicit ollama provider", func(t *testing.T) {
		p := FromParams(map[string]any{
			"api_url":  "http://gpu-box:9000",
			"provider": "proxy/ollama",
		})
		assert.Equal(t, OllamaNative, p.Dialect)
	})

	t.Run("non-string values ignored", func(t *testing.T) {
		p := FromParams(map[string]any{"api_base": 42, "api_key": nil})
		assert.False(t, p.HasBase())
		assert.Empty(t, p.APIKey)
	})
}

func TestWithFallback(t *testing.T) {
	fb := NewConnectionParams("http://localhost:11434", "env-key")

	got := ConnectionParams{}.WithFallback(fb, "")
	assert.Equal(t, "http://localhost:11434", got.APIBase)
	assert.Equal(t, "env-key", got.APIKey)
	assert.Equal(t, OllamaNative, got.Dialect)

	own := NewConnectionParams("https://api.openai.com/v1", "")
	got = own.WithFallback(fb, "")
	assert.Equal(t, "https://api.openai.com/v1", got.APIBase)
	assert.Equal(t, "env-key", got.APIKey)
	assert.Equal(t, OpenAICompatible, got.Dialect)
}

func TestWithFallback_KeepsFallbackDialect(t *testing.T) {
	stored := FromParams(map[string]any{"api_base": "http://gpu-box:8000", "provider": "ollama"})
	require.Equal(t, OllamaNative, stored.Dialect)

	got := ConnectionParams{}.WithFallback(stored, "")
	assert.Equal(t, "http://gpu-box:8000", got.APIBase)
	assert.Equal(t, OllamaNative, got.Dialect)

	got = ConnectionParams{}.WithFallback(stored, "proxy/openai")
	assert.Equal(t, OpenAICompatible, got.Dialect)
}

func TestConnectionParamsStringHidesKey(t *testing.T) {
	s := NewConnectionParams("https://api.openai.com/v1", "sk-secret").String()
	assert.NotContains(t, s, "sk-secret")
}

func TestProviderTag(t *testing.T) {
	assert.Equal(t, "proxy/ollama", OllamaNative.ProviderTag())
	assert.Equal(t, "proxy/openai", OpenAICompatible.ProviderTag())
}
