package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RedirectPolicy controls how a transport reacts to 3xx responses.
type RedirectPolicy string

const (
	RedirectFollow RedirectPolicy = "follow"
	RedirectManual RedirectPolicy = "manual"
	RedirectError  RedirectPolicy = "error"
)

// ErrRedirectNotAllowed is returned when a redirect is received under RedirectError.
var ErrRedirectNotAllowed = errors.New("redirect not allowed")

// ParseRedirectPolicy maps a policy name to a RedirectPolicy. Empty means follow.
func ParseRedirectPolicy(s string) (RedirectPolicy, error) {
	switch p := RedirectPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", RedirectFollow:
		return RedirectFollow, nil
	case RedirectManual, RedirectError:
		return p, nil
	default:
		return "", fmt.Errorf("unsupported redirect policy %q", s)
	}
}

// Option keys understood by the bundled transports.
const (
	OptionUserAgent = "user_agent"
)

// Request is a single outbound call handed to a Transport.
type Request struct {
	Method   string
	URL      string
	Header   http.Header
	Body     io.Reader
	Redirect RedirectPolicy
	// Timeout bounds the whole exchange when positive.
	Timeout time.Duration
	// Options carries transport-specific extensions.
	Options map[string]string
}

// Response is the response-like contract the executor interprets.
type Response interface {
	StatusCode() int
	StatusText() string
	// URL is the final URL after any redirects.
	URL() string
	Header() http.Header
	Text() (string, error)
	Bytes() ([]byte, error)
	Close() error
}

// Transport performs the network I/O for one request.
type Transport interface {
	Execute(ctx context.Context, req *Request) (Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *Request) (Response, error)

func (f TransportFunc) Execute(ctx context.Context, req *Request) (Response, error) {
	return f(ctx, req)
}

// statusText strips the numeric prefix from a status line such as "404 Not Found".
func statusText(code int, status string) string {
	text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(status), fmt.Sprint(code)))
	if text == "" {
		return http.StatusText(code)
	}
	return text
}
