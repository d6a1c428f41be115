package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRequest marks descriptors rejected before any network call.
var ErrInvalidRequest = errors.New("invalid request")

// errErrorsNotArray is reported when an error body carries a non-array "errors" field.
var errErrorsNotArray = errors.New(`"errors" field is not an array`)

// RequestError is the single error kind returned by Executor.Do.
type RequestError struct {
	Message string            `json:"message"`
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers"`
	Request Options           `json:"request"`

	// Fields copied from a JSON error body.
	DocumentationURL string            `json:"documentation_url,omitempty"`
	Errors           []json.RawMessage `json:"errors,omitempty"`

	cause error
}

func newRequestError(message string, status int, headers map[string]string, req Options) *RequestError {
	return &RequestError{
		Message: message,
		Status:  status,
		Headers: headers,
		Request: req,
	}
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// Unwrap returns the failure that was coerced into a status 500 error, if any.
func (e *RequestError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// mergeBody copies API error fields from a JSON body onto e. The message is
// extended with the compact JSON text of every entry in "errors".
func (e *RequestError) mergeBody(text string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return fmt.Errorf("decode error body: %w", err)
	}

	var msg string
	if raw, ok := fields["message"]; ok && json.Unmarshal(raw, &msg) == nil {
		e.Message = msg
	}
	var docURL string
	if raw, ok := fields["documentation_url"]; ok && json.Unmarshal(raw, &docURL) == nil {
		e.DocumentationURL = docURL
	}

	raw, ok := fields["errors"]
	if !ok {
		return nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil || entries == nil {
		return errErrorsNotArray
	}

	rendered := make([]string, 0, len(entries))
	for _, entry := range entries {
		text, err := jsonText(entry)
		if err != nil {
			return fmt.Errorf("render error entry: %w", err)
		}
		rendered = append(rendered, text)
	}
	e.Errors = entries
	e.Message = e.Message + ": " + strings.Join(rendered, ", ")
	return nil
}

// AsRequestError extracts a *RequestError from err.
func AsRequestError(err error) (*RequestError, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr, true
	}
	return nil, false
}

// IsStatus reports whether err is a RequestError with the given status.
func IsStatus(err error, status int) bool {
	reqErr, ok := AsRequestError(err)
	return ok && reqErr.Status == status
}
