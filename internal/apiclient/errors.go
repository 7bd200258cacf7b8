package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors
var (
	// ErrUnauthorized is wrapped by every *APIError with status 401
	ErrUnauthorized = errors.New("session expired or not signed in")
	// ErrTransport wraps network failures where no response arrived
	ErrTransport = errors.New("network error")
)

// APIError is a non-2xx response from the backend
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       []byte
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Unwrap lets errors.Is(err, ErrUnauthorized) match 401 responses
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// IsNotFound reports whether the backend answered 404
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsClientError reports a 4xx status
func (e *APIError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// IsServerError reports a 5xx status
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}

// errorPayload covers the shapes the backend uses for errors:
// {"error":"..."}, {"message":"..."}, {"msg":"..."} and
// {"success":false,"error":{"code":"...","message":"..."}}.
type errorPayload struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
	Msg     string          `json:"msg"`
	Code    string          `json:"code"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status, Body: body}
	e.Code, e.Message = parseErrorBody(body)
	return e
}

func parseErrorBody(body []byte) (code, message string) {
	var p errorPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return "", ""
	}
	code = p.Code

	if len(p.Error) > 0 {
		var s string
		if err := json.Unmarshal(p.Error, &s); err == nil && s != "" {
			message = s
		} else {
			var d errorDetail
			if err := json.Unmarshal(p.Error, &d); err == nil {
				message = d.Message
				if d.Code != "" {
					code = d.Code
				}
			}
		}
	}
	if message == "" {
		message = p.Message
	}
	if message == "" {
		message = p.Msg
	}
	return code, strings.TrimSpace(message)
}

// UserMessage returns the server's message for err when there is one,
// otherwise fallback. Transport failures always get the fallback.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
