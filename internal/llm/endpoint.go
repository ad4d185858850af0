package llm

import (
	"fmt"
	"sync"
)

// Endpoint is one call a dialect exposes: a path relative to the base URL and
// a builder for the smallest request body the backend accepts.
type Endpoint struct {
	Path    string
	Payload func(model string) any
}

// Adapter groups the endpoints of a dialect.
type Adapter struct {
	Chat      Endpoint
	Embedding Endpoint
}

// Endpoint selects the embedding or chat endpoint.
func (a Adapter) Endpoint(embedding bool) Endpoint {
	if embedding {
		return a.Embedding
	}
	return a.Chat
}

var (
	mu       sync.RWMutex
	adapters = make(map[Dialect]Adapter)
)

func Register(d Dialect, a Adapter) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := adapters[d]; exists {
		panic(fmt.Sprintf("dialect %s already registered", d))
	}
	adapters[d] = a
}

func Get(d Dialect) (Adapter, error) {
	mu.RLock()
	defer mu.RUnlock()
	a, ok := adapters[d]
	if !ok {
		return Adapter{}, fmt.Errorf("no adapter registered for dialect: %s", d)
	}
	return a, nil
}

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PingMessages is the conversation sent by chat probes.
func PingMessages() []Message {
	return []Message{{Role: "user", Content: "Hi"}}
}
