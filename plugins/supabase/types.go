package supabase

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Error is the body PostgREST sends with a non-2xx status.
type Error struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	Details        string `json:"details"`
	Hint           string `json:"hint"`
	HTTPStatusCode int    `json:"-"`
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("supabase: %d", e.HTTPStatusCode)
	if e.Code != "" {
		msg += " " + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

func newError(resp *http.Response, body []byte) *Error {
	var apiErr Error
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Message == "" {
		// Gateway errors are not always PostgREST shaped.
		apiErr.Message = strings.TrimSpace(string(body))
		if apiErr.Message == "" {
			apiErr.Message = resp.Status
		}
	}
	apiErr.HTTPStatusCode = resp.StatusCode
	return &apiErr
}
