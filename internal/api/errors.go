package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthenticated means the backend rejected (or we never had) a bearer credential.
	// Callers redirect to login and show nothing else.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrRequestFailed covers every other non-2xx response and transport failure.
	ErrRequestFailed = errors.New("request failed")
)

// RequestError describes a failed call. It unwraps to ErrRequestFailed.
type RequestError struct {
	Op      string
	Status  int    // 0 for transport errors
	Message string // the backend's "error" field, when present
	Body    []byte // raw response body
	Err     error  // transport error, when Status is 0
}

func (e *RequestError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
}

func (e *RequestError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrRequestFailed, e.Err}
	}
	return []error{ErrRequestFailed}
}

// IsUnauthenticated reports whether err is a 401 from an authenticated endpoint.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

// ServerMessage returns the backend's error text for err, or "".
func ServerMessage(err error) string {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Message
	}
	return ""
}

// ServerBody returns the raw response body carried by err, or "".
func ServerBody(err error) string {
	var re *RequestError
	if errors.As(err, &re) {
		return strings.TrimSpace(string(re.Body))
	}
	return ""
}

// errorMessage extracts {"error": "..."} or DRF's {"detail": "..."} from body.
func errorMessage(body []byte) string {
	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Detail
}
