package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/samvad-hq/apireq/pkg/httpclient"
)

// Options is the fully-resolved descriptor for one call.
type Options struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	// Body is sent as-is when it is a string, []byte or io.Reader; any other
	// value is JSON encoded first.
	Body     any    `json:"body,omitempty"`
	Redirect string `json:"redirect,omitempty"`
	// Request carries transport-specific overrides.
	Request *TransportOptions `json:"request,omitempty"`
}

// TransportOptions are merged over the defaults derived from Options.
type TransportOptions struct {
	Transport  httpclient.Transport `json:"-"`
	Redirect   string               `json:"redirect,omitempty"`
	Timeout    time.Duration        `json:"timeout,omitempty"`
	Extensions map[string]string    `json:"extensions,omitempty"`
}

// clone returns a copy that does not share maps with o.
func (o Options) clone() Options {
	out := o
	if o.Headers != nil {
		out.Headers = make(map[string]string, len(o.Headers))
		for k, v := range o.Headers {
			out.Headers[k] = v
		}
	}
	if o.Request != nil {
		r := *o.Request
		if o.Request.Extensions != nil {
			r.Extensions = make(map[string]string, len(o.Request.Extensions))
			for k, v := range o.Request.Extensions {
				r.Extensions[k] = v
			}
		}
		out.Request = &r
	}
	return out
}

func (o Options) validate() error {
	if strings.TrimSpace(o.URL) == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(o.Method) == "" {
		return fmt.Errorf("%w: method is required", ErrInvalidRequest)
	}
	return nil
}

// serializeBody turns Body into the bytes put on the wire.
func serializeBody(body any) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case string:
		return strings.NewReader(b), nil
	case []byte:
		return bytes.NewReader(b), nil
	case json.RawMessage:
		return bytes.NewReader(b), nil
	case io.Reader:
		return b, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return bytes.NewReader(payload), nil
}

// transportRequest merges the descriptor with its transport overrides.
func (o Options) transportRequest(body io.Reader) (*httpclient.Request, error) {
	redirect := o.Redirect
	var timeout time.Duration
	var ext map[string]string
	if o.Request != nil {
		if o.Request.Redirect != "" {
			redirect = o.Request.Redirect
		}
		timeout = o.Request.Timeout
		ext = o.Request.Extensions
	}

	policy, err := httpclient.ParseRedirectPolicy(redirect)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	header := make(http.Header, len(o.Headers))
	for k, v := range o.Headers {
		header.Set(k, v)
	}

	return &httpclient.Request{
		Method:   strings.ToUpper(strings.TrimSpace(o.Method)),
		URL:      o.URL,
		Header:   header,
		Body:     body,
		Redirect: policy,
		Timeout:  timeout,
		Options:  ext,
	}, nil
}
