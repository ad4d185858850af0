package llm

import (
	"fmt"
	"strings"
)

// Dialect is the HTTP wire shape a backend speaks.
type Dialect string

const (
	OpenAICompatible Dialect = "openai-compatible"
	OllamaNative     Dialect = "ollama-native"
)

const ollamaPort = "11434"

// ProviderTag is the provider value reported for environment-derived models.
func (d Dialect) ProviderTag() string {
	if d == OllamaNative {
		return "proxy/ollama"
	}
	return "proxy/openai"
}

func (d Dialect) String() string {
	return string(d)
}

// InferDialect tags a base URL as ollama-native when it carries the default
// ollama port or mentions ollama, and openai-compatible otherwise.
func InferDialect(base string) Dialect {
	if strings.Contains(base, ollamaPort) || strings.Contains(strings.ToLower(base), "ollama") {
		return OllamaNative
	}
	return OpenAICompatible
}

// ConnectionParams is everything needed to reach a model backend.
type ConnectionParams struct {
	APIBase string
	APIKey  string
	Dialect Dialect
}

// NewConnectionParams infers the dialect from base once and freezes it.
func NewConnectionParams(base, key string) ConnectionParams {
	return ConnectionParams{APIBase: base, APIKey: key, Dialect: InferDialect(base)}
}

func (p ConnectionParams) HasBase() bool {
	return strings.TrimSpace(p.APIBase) != ""
}

// String never prints the key itself.
func (p ConnectionParams) String() string {
	key := "none"
	if p.APIKey != "" {
		key = "set"
	}
	return fmt.Sprintf("%s (%s, key=%s)", p.APIBase, p.Dialect, key)
}

// JoinPath appends path to base with exactly one slash between them.
func JoinPath(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
