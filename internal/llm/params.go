package llm

import (
	"fmt"
	"strings"
)

var (
	baseKeys = []string{"api_base", "openai_api_base", "api_url"}
	keyKeys  = []string{"api_key", "openai_api_key"}
)

// FromParams pulls connection settings out of a free-form model params map.
// Base and key are empty when the map does not carry them. An explicit
// provider naming ollama wins over inference from the base URL.
func FromParams(params map[string]any) ConnectionParams {
	p := ConnectionParams{
		APIBase: firstString(params, baseKeys...),
		APIKey:  firstString(params, keyKeys...),
	}
	p.Dialect = dialectFor(p.APIBase, ProviderOf(params))
	return p
}

// WithFallback fills an empty base and key from fb. When the base comes from
// fb, an explicit provider decides the dialect, then fb's own dialect.
func (p ConnectionParams) WithFallback(fb ConnectionParams, provider string) ConnectionParams {
	out := p
	if !out.HasBase() {
		out.APIBase = fb.APIBase
		switch {
		case provider != "":
			out.Dialect = dialectFor(out.APIBase, provider)
		case fb.Dialect != "":
			out.Dialect = fb.Dialect
		default:
			out.Dialect = InferDialect(out.APIBase)
		}
	}
	if out.APIKey == "" {
		out.APIKey = fb.APIKey
	}
	return out
}

// ProviderOf returns the raw provider value of a params map.
func ProviderOf(params map[string]any) string {
	return firstString(params, "provider")
}

func dialectFor(base, provider string) Dialect {
	if strings.Contains(strings.ToLower(provider), "ollama") {
		return OllamaNative
	}
	return InferDialect(base)
}

func firstString(params map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := params[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case fmt.Stringer:
			s = t.String()
		default:
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}
