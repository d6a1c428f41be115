package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// TransportConfig holds the knobs shared by the bundled transports.
type TransportConfig struct {
	Timeout   time.Duration
	UserAgent string
	// HTTPClient is used by the nethttp transport; nil builds a default one.
	HTTPClient *http.Client
}

// RestyTransport adapts resty.Client to the Transport interface. Redirect
// policy is a client-level setting in resty, so one client is kept per policy.
type RestyTransport struct {
	clients map[RedirectPolicy]*resty.Client
}

// NewRestyTransport creates a RestyTransport with the given config.
func NewRestyTransport(cfg TransportConfig) *RestyTransport {
	return &RestyTransport{
		clients: map[RedirectPolicy]*resty.Client{
			RedirectFollow: newRestyBaseClient(cfg).SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)),
			RedirectManual: newRestyBaseClient(cfg).SetRedirectPolicy(resty.RedirectPolicyFunc(manualRedirect)),
			RedirectError:  newRestyBaseClient(cfg).SetRedirectPolicy(resty.RedirectPolicyFunc(rejectRedirect)),
		},
	}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(TransportConfig{Timeout: timeout})
}

// newRestyBaseClient creates a new resty.Client with the specified timeout and user agent.
func newRestyBaseClient(cfg TransportConfig) *resty.Client {
	c := resty.New()
	c.SetTimeout(cfg.Timeout)
	c.SetAllowGetMethodPayload(true)
	c.SetPreRequestHook(dropDetectedContentType)
	if cfg.UserAgent != "" {
		c.SetHeader("User-Agent", cfg.UserAgent)
	}
	return c
}

// Execute performs the request and buffers the response body.
func (r *RestyTransport) Execute(ctx context.Context, req *Request) (Response, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	client, ok := r.clients[policyOrDefault(req.Redirect)]
	if !ok {
		return nil, fmt.Errorf("unsupported redirect policy %q", req.Redirect)
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	if req.Body != nil && req.Header.Get("Content-Type") == "" {
		ctx = context.WithValue(ctx, detectedContentTypeKey{}, true)
	}

	rr := client.R().SetContext(ctx)
	if len(req.Header) > 0 {
		rr.SetHeaderMultiValues(req.Header)
	}
	if ua := req.Options[OptionUserAgent]; ua != "" {
		rr.SetHeader("User-Agent", ua)
	}
	if req.Body != nil {
		rr.SetBody(req.Body)
	}

	resp, err := rr.Execute(req.Method, req.URL)
	if err != nil {
		return nil, err
	}
	return &bufferedResponse{
		code:   resp.StatusCode(),
		status: resp.Status(),
		url:    finalURL(resp.RawResponse, req.URL),
		header: resp.Header(),
		body:   resp.Body(),
	}, nil
}

// detectedContentTypeKey marks requests whose body was given without a
// Content-Type. resty fills one in from the body's Go type; the hook removes it.
type detectedContentTypeKey struct{}

func dropDetectedContentType(_ *resty.Client, hr *http.Request) error {
	if drop, _ := hr.Context().Value(detectedContentTypeKey{}).(bool); drop {
		hr.Header.Del("Content-Type")
	}
	return nil
}

func policyOrDefault(p RedirectPolicy) RedirectPolicy {
	if p == "" {
		return RedirectFollow
	}
	return p
}

func manualRedirect(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

func rejectRedirect(req *http.Request, _ []*http.Request) error {
	return fmt.Errorf("%w: %s", ErrRedirectNotAllowed, req.URL)
}

// finalURL returns the URL of the last request in a redirect chain.
func finalURL(resp *http.Response, fallback string) string {
	if resp == nil || resp.Request == nil || resp.Request.URL == nil {
		return fallback
	}
	return resp.Request.URL.String()
}
