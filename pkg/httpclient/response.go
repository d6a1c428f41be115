package httpclient

import "net/http"

// bufferedResponse is a fully-read response shared by the bundled transports.
type bufferedResponse struct {
	code   int
	status string
	url    string
	header http.Header
	body   []byte
}

func (r *bufferedResponse) StatusCode() int        { return r.code }
func (r *bufferedResponse) StatusText() string     { return statusText(r.code, r.status) }
func (r *bufferedResponse) URL() string            { return r.url }
func (r *bufferedResponse) Header() http.Header    { return r.header }
func (r *bufferedResponse) Text() (string, error)  { return string(r.body), nil }
func (r *bufferedResponse) Bytes() ([]byte, error) { return r.body, nil }
func (r *bufferedResponse) Close() error           { return nil }

// NewBufferedResponse builds a Response from already-read parts. Useful for
// custom transports and tests.
func NewBufferedResponse(code int, url string, header http.Header, body []byte) Response {
	if header == nil {
		header = http.Header{}
	}
	return &bufferedResponse{
		code:   code,
		status: http.StatusText(code),
		url:    url,
		header: header,
		body:   body,
	}
}
