package doctools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidJSON reports a response body that does not hold a single JSON value.
var ErrInvalidJSON = errors.New("response body is not valid json")

// Response is the raw result of a call to the document tools API.
// Non-2xx statuses are data, not errors; callers inspect StatusCode.
type Response struct {
	statusCode int
	body       string
}

// NewResponse wraps a status code and raw body.
func NewResponse(statusCode int, body string) *Response {
	return &Response{statusCode: statusCode, body: body}
}

// StatusCode returns the HTTP status returned by the server.
func (r *Response) StatusCode() int { return r.statusCode }

// Body returns the raw response body.
func (r *Response) Body() string { return r.body }

// IsJSON reports whether the body parses as a single JSON value.
// Literal null and false bodies are valid JSON.
func (r *Response) IsJSON() bool {
	_, err := r.ParseBody()
	return err == nil
}

// ParseBody decodes the body into a Value. Numbers keep their textual form.
func (r *Response) ParseBody() (Value, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(r.body)))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("%w: trailing data after json value", ErrInvalidJSON)
	}
	return valueOf(raw), nil
}
