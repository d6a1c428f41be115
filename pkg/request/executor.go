package request

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/samvad-hq/apireq/pkg/httpclient"
)

// Response is the normalized success envelope.
type Response struct {
	Status int    `json:"status"`
	URL    string `json:"url"`
	// Headers maps lower-cased names to the last value received. Wire order is
	// not kept; callers that print headers sort the names themselves.
	Headers map[string]string `json:"headers"`
	// Data is nil, a decoded JSON value, a string or a []byte depending on
	// the status and content-type of the response.
	Data any `json:"data,omitempty"`
}

// Executor performs one request per Do call and normalizes the outcome.
// It keeps no per-call state and is safe for concurrent use.
type Executor struct {
	transport httpclient.Transport
	log       Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithTransport sets the default transport used when a descriptor carries no override.
func WithTransport(t httpclient.Transport) Option {
	return func(e *Executor) {
		if t != nil {
			e.transport = t
		}
	}
}

// WithLogger sets the logger used for debug traces.
func WithLogger(log Logger) Option {
	return func(e *Executor) { e.log = ensureLogger(log) }
}

// NewExecutor builds an Executor backed by resty unless WithTransport is given.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{log: noopLogger{}}
	for _, opt := range opts {
		opt(e)
	}
	if e.transport == nil {
		e.transport = httpclient.NewRestyTransport(httpclient.TransportConfig{})
	}
	return e
}

// Do issues the request described by opts. Every returned error is a
// *RequestError.
func (e *Executor) Do(ctx context.Context, opts Options) (*Response, error) {
	req := opts.clone()
	headers := make(map[string]string)

	resp, err := e.execute(ctx, req, headers)
	if err == nil {
		return resp, nil
	}
	if _, ok := AsRequestError(err); ok {
		return nil, err
	}
	return nil, &RequestError{
		Message: err.Error(),
		Status:  http.StatusInternalServerError,
		Headers: headers,
		Request: req,
		cause:   err,
	}
}

// execute fills headers as soon as the response arrives so that failures
// further down still report them.
func (e *Executor) execute(ctx context.Context, req Options, headers map[string]string) (*Response, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	body, err := serializeBody(req.Body)
	if err != nil {
		return nil, err
	}
	treq, err := req.transportRequest(body)
	if err != nil {
		return nil, err
	}

	transport := e.transport
	if req.Request != nil && req.Request.Transport != nil {
		transport = req.Request.Transport
	}

	resp, err := transport.Execute(ctx, treq)
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	url := resp.URL()
	status := resp.StatusCode()
	captureHeaders(resp.Header(), headers)

	e.log.DebugObj("request executed", "request_result", map[string]any{
		"method": treq.Method,
		"url":    url,
		"status": status,
	})

	envelope := &Response{Status: status, URL: url, Headers: headers}

	switch {
	case status == http.StatusNoContent || status == http.StatusResetContent:
		return envelope, nil
	case status == http.StatusNotModified:
		return nil, newRequestError("Not modified", status, headers, req)
	case treq.Method == http.MethodHead:
		if status < http.StatusBadRequest {
			return envelope, nil
		}
		return nil, newRequestError(resp.StatusText(), status, headers, req)
	case status >= http.StatusBadRequest:
		return nil, e.apiError(resp, status, headers, req)
	}

	data, err := decodeBody(resp)
	if err != nil {
		return nil, err
	}
	envelope.Data = data
	return envelope, nil
}

// apiError builds the error for a status >= 400 response from its body.
func (e *Executor) apiError(resp httpclient.Response, status int, headers map[string]string, req Options) error {
	text, err := resp.Text()
	if err != nil {
		return fmt.Errorf("read error body: %w", err)
	}
	reqErr := newRequestError(text, status, headers, req)
	if err := reqErr.mergeBody(text); err != nil {
		e.log.DebugObj("error body not merged", "error_body", map[string]any{
			"status": status,
			"error":  err.Error(),
		})
	}
	return reqErr
}

// decodeBody picks the data representation from the content-type header.
func decodeBody(resp httpclient.Response) (any, error) {
	contentType := resp.Header().Get("Content-Type")

	if strings.Contains(contentType, "application/json") {
		raw, err := resp.Bytes()
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		var data any
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("decode json body: %w", err)
		}
		return data, nil
	}

	if contentType == "" || strings.HasPrefix(contentType, "text/") || strings.HasSuffix(contentType, "charset=utf-8") {
		text, err := resp.Text()
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return text, nil
	}

	return readBuffer(resp)
}

// readBuffer returns the raw body bytes.
func readBuffer(resp httpclient.Response) ([]byte, error) {
	raw, err := resp.Bytes()
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if raw == nil {
		raw = []byte{}
	}
	return raw, nil
}

// captureHeaders flattens h into dst with lower-cased names. The last value of
// a repeated header wins. Names that differ only in case are applied in sorted
// order so the surviving value does not depend on map iteration.
func captureHeaders(h http.Header, dst map[string]string) {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		values := h[name]
		if len(values) == 0 {
			continue
		}
		dst[strings.ToLower(name)] = values[len(values)-1]
	}
}
