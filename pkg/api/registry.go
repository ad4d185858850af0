package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// WorkerType classifies the workers registered in the cluster.
type WorkerType string

const (
	LLM      WorkerType = "llm"
	Text2Vec WorkerType = "text2vec"
	Reranker WorkerType = "reranker"
)

// ServiceSuffix is the worker type suffix used by worker-manager instances.
// It is deliberately not a WorkerType.
const ServiceSuffix = "service"

// WorkerTypes lists every recognized worker type.
func WorkerTypes() []WorkerType {
	return []WorkerType{LLM, Text2Vec, Reranker}
}

// ParseWorkerType returns the WorkerType named by s.
func ParseWorkerType(s string) (WorkerType, error) {
	wt := WorkerType(strings.ToLower(strings.TrimSpace(s)))
	if wt.Valid() {
		return wt, nil
	}
	return "", fmt.Errorf("unknown worker type %q", s)
}

func (w WorkerType) Valid() bool {
	switch w {
	case LLM, Text2Vec, Reranker:
		return true
	}
	return false
}

// IsEmbedding reports whether the worker produces embeddings.
func (w WorkerType) IsEmbedding() bool {
	return w == Text2Vec
}

func (w WorkerType) String() string {
	return string(w)
}

func (w *WorkerType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*w = ""
		return nil
	}
	parsed, err := ParseWorkerType(s)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// SplitInstanceName splits a controller instance name of the form
// "<model>@<worker_type>".
func SplitInstanceName(name string) (model string, workerType string, ok bool) {
	idx := strings.LastIndex(name, "@")
	if idx < 0 {
		return name, "", false
	}
	return name[:idx], name[idx+1:], true
}

// InstanceName joins a model name and a worker type suffix.
func InstanceName(model, suffix string) string {
	return model + "@" + suffix
}
