package api

// GenericErrorCode is reported for every failure surfaced in the envelope.
const GenericErrorCode = "E000X"

// Result is the uniform response envelope.
type Result struct {
	Success   bool   `json:"success"`
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// Succ wraps data in a successful envelope.
func Succ(data any) Result {
	return Result{Success: true, Data: data}
}

// Failed builds a failure envelope. An empty code falls back to GenericErrorCode.
func Failed(code, msg string) Result {
	if code == "" {
		code = GenericErrorCode
	}
	return Result{Success: false, ErrorCode: code, Message: msg}
}

// HealthResponse is returned by GET /health and GET /test_auth.
type HealthResponse struct {
	Status string `json:"status"`
}

// AuthErrorResponse mirrors the OpenAI invalid_api_key error body.
type AuthErrorResponse struct {
	Error AuthErrorDetail `json:"error"`
}

type AuthErrorDetail struct {
	Message string  `json:"message"`
	Type    string  `json:"type"`
	Param   *string `json:"param"`
	Code    string  `json:"code"`
}

// InvalidAPIKey returns the body sent with a 401 from the credential gate.
func InvalidAPIKey() AuthErrorResponse {
	return AuthErrorResponse{
		Error: AuthErrorDetail{
			Message: "",
			Type:    "invalid_request_error",
			Param:   nil,
			Code:    "invalid_api_key",
		},
	}
}
