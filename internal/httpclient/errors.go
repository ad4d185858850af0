package httpclient

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// UpstreamError represents an error returned by an upstream service
type UpstreamError struct {
	StatusCode int
	Body       []byte
	URL        string
}

func (e *UpstreamError) Error() string {
	if msg := ErrorMessage(e.Body); msg != "" {
		return fmt.Sprintf("upstream error: status %d from %s: %s", e.StatusCode, e.URL, msg)
	}
	return fmt.Sprintf("upstream error: status %d from %s", e.StatusCode, e.URL)
}

var errorPaths = []string{"error.message", "error", "detail", "message", "err_msg"}

// ErrorMessage digs the human readable message out of a JSON error body.
// It returns "" for non-JSON bodies.
func ErrorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, p := range errorPaths {
		r := gjson.GetBytes(body, p)
		if r.Exists() && r.Type == gjson.String {
			if s := strings.TrimSpace(r.String()); s != "" {
				return s
			}
		}
	}
	return ""
}
