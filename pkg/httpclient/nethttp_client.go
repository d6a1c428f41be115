package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// NetHTTPTransport is a net/http backed Transport.
type NetHTTPTransport struct {
	client    *http.Client
	userAgent string
}

// NewNetHTTPTransport wraps cfg.HTTPClient, or builds one with cfg.Timeout (30s fallback).
func NewNetHTTPTransport(cfg TransportConfig) *NetHTTPTransport {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &NetHTTPTransport{client: client, userAgent: cfg.UserAgent}
}

// Execute implements Transport using net/http.
func (t *NetHTTPTransport) Execute(ctx context.Context, req *Request) (Response, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, strings.ToUpper(req.Method), req.URL, req.Body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if ua := firstNonEmpty(req.Options[OptionUserAgent], t.userAgent); ua != "" && httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", ua)
	}

	client := *t.client
	switch policyOrDefault(req.Redirect) {
	case RedirectManual:
		client.CheckRedirect = manualRedirect
	case RedirectError:
		client.CheckRedirect = rejectRedirect
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &bufferedResponse{
		code:   resp.StatusCode,
		status: resp.Status,
		url:    finalURL(resp, req.URL),
		header: resp.Header,
		body:   body,
	}, nil
}

// HTTPClient returns the underlying *http.Client.
func (t *NetHTTPTransport) HTTPClient() *http.Client {
	return t.client
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
