package api

// WorkerStartupRequest describes a worker to start, stop, test or create.
type WorkerStartupRequest struct {
	Host string `json:"host"`
	Port int    `json:"port"`

	// the model name as registered with the worker manager
	Model      string     `json:"model" binding:"required"`
	WorkerType WorkerType `json:"worker_type" binding:"required"`

	// Model-load parameters (api_base, api_key, provider, ...).
	Params map[string]any `json:"params,omitempty"`

	// DeleteAfter removes the stored record when stopping.
	DeleteAfter bool `json:"delete_after,omitempty"`

	SysCode  string `json:"sys_code,omitempty"`
	UserName string `json:"user_name,omitempty"`
}

// Identity returns the storage identity of the request.
func (r *WorkerStartupRequest) Identity() ModelIdentity {
	return ModelIdentity{
		Model:      r.Model,
		WorkerType: r.WorkerType,
		SysCode:    r.SysCode,
		UserName:   r.UserName,
	}
}

// ModelIdentity identifies a logical model registration within storage.
type ModelIdentity struct {
	Model      string     `json:"model"`
	WorkerType WorkerType `json:"worker_type"`
	SysCode    string     `json:"sys_code,omitempty"`
	UserName   string     `json:"user_name,omitempty"`
}
