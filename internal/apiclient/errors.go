package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthorized is returned for every 401 on an authenticated request.
	// The stored token is already gone when the caller sees it.
	ErrUnauthorized = errors.New("unauthorized: session expired, please log in again")
	// ErrNetwork covers transport failures and timeouts; nothing reached
	// or came back from the server.
	ErrNetwork = errors.New("connection error: check your network connection")
)

// RemoteError is a non-2xx answer other than the unauthorized path.
type RemoteError struct {
	StatusCode int
	StatusText string
	Detail     string
}

func (e *RemoteError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("Error %d: %s", e.StatusCode, e.StatusText)
}

// IsRemote reports whether err carries a structured server rejection.
func IsRemote(err error) (*RemoteError, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// parseDetail understands {"detail": "..."} and the list form used for
// field validation errors: {"detail": [{"msg": "..."}, ...]}.
func parseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
