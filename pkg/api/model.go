package api

// ModelResponse describes a running instance annotated with its manager.
type ModelResponse struct {
	ModelName      string `json:"model_name"`
	WorkerType     string `json:"worker_type"`
	Host           string `json:"host"`
	Port           int    `json:"port"`
	ManagerHost    string `json:"manager_host"`
	ManagerPort    int    `json:"manager_port"`
	Healthy        bool   `json:"healthy"`
	CheckHealthy   bool   `json:"check_healthy"`
	LastHeartbeat  string `json:"last_heartbeat,omitempty"`
	PromptTemplate string `json:"prompt_template,omitempty"`
}

// ModelDetail is the resolved connection detail of a model.
type ModelDetail struct {
	Host       string         `json:"host"`
	Port       int            `json:"port"`
	Model      string         `json:"model"`
	WorkerType WorkerType     `json:"worker_type"`
	Params     map[string]any `json:"params"`
}

// SupportedModel describes a model a worker manager is able to launch.
type SupportedModel struct {
	Model      string         `json:"model"`
	Path       string         `json:"path,omitempty"`
	WorkerType string         `json:"worker_type"`
	PathExist  bool           `json:"path_exist"`
	Proxy      bool           `json:"proxy"`
	Enabled    bool           `json:"enabled"`
	Params     map[string]any `json:"params,omitempty"`

	// Set when flattened for GET /model-types.
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

// WorkerSupportedModel groups the supported models of one worker manager.
type WorkerSupportedModel struct {
	Host   string           `json:"host"`
	Port   int              `json:"port"`
	Models []SupportedModel `json:"models"`
}

// ModelInstance is a worker registered with the model controller.
type ModelInstance struct {
	ModelName      string  `json:"model_name"`
	Host           string  `json:"host"`
	Port           int     `json:"port"`
	Weight         float64 `json:"weight,omitempty"`
	CheckHealthy   bool    `json:"check_healthy"`
	Healthy        bool    `json:"healthy"`
	Enabled        bool    `json:"enabled"`
	PromptTemplate string  `json:"prompt_template,omitempty"`
	LastHeartbeat  string  `json:"last_heartbeat,omitempty"`
}

// ProbeResponse is the data returned by POST /models/test.
type ProbeResponse struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code,omitempty"`
	Kind       string `json:"kind,omitempty"`
	URL        string `json:"url,omitempty"`
	Message    string `json:"message"`
}
