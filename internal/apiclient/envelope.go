package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Meta carries pagination information from the envelope
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// Result is the uniform typed result of a backend call
type Result[T any] struct {
	Data T
	Meta *Meta
}

type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
	Meta    *Meta           `json:"meta"`
}

// Decode turns a response body into T. Bodies shaped as
// {"success":...,"data":...} are unwrapped one level; anything else is
// decoded whole. An envelope with success=false becomes an *APIError.
func Decode[T any](resp *Response) (Result[T], error) {
	var out Result[T]
	if resp == nil {
		return out, fmt.Errorf("decoding response: nil response")
	}
	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 {
		return out, nil
	}

	if body[0] == '{' {
		var env envelope
		if err := json.Unmarshal(body, &env); err == nil && env.Success != nil {
			if !*env.Success {
				apiErr := newAPIError(resp.StatusCode, body)
				if apiErr.Message == "" {
					apiErr.Message = env.Message
				}
				return out, apiErr
			}
			out.Meta = env.Meta
			if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
				return out, nil
			}
			if err := json.Unmarshal(env.Data, &out.Data); err != nil {
				return out, fmt.Errorf("decoding response data: %w", err)
			}
			return out, nil
		}
	}

	if err := json.Unmarshal(body, &out.Data); err != nil {
		return out, fmt.Errorf("decoding response: %w", err)
	}
	return out, nil
}

// DecodeData is Decode without the pagination metadata
func DecodeData[T any](resp *Response) (T, error) {
	r, err := Decode[T](resp)
	return r.Data, err
}
