package cluster

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// RemoteError is a 2xx reply whose envelope reports failure.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// unwrap accepts either a bare JSON payload or a {success, err_code, err_msg,
// data} envelope and decodes the payload into out (which may be nil).
func unwrap(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return nil
	}
	if !gjson.ValidBytes(raw) {
		return errors.New("invalid JSON in response")
	}

	payload := []byte(raw)
	if success := gjson.GetBytes(raw, "success"); success.Exists() && success.Type != gjson.Null {
		if !success.Bool() {
			msg := gjson.GetBytes(raw, "err_msg").String()
			if msg == "" {
				msg = gjson.GetBytes(raw, "message").String()
			}
			if msg == "" {
				msg = "remote call failed"
			}
			return &RemoteError{
				Code:    gjson.GetBytes(raw, "err_code").String(),
				Message: msg,
			}
		}
		payload = []byte(gjson.GetBytes(raw, "data").Raw)
	}

	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
