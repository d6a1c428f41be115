package publishers

import (
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/apireq/pkg/request"
)

// Event represents the outcome of one executed request, published downstream.
type Event struct {
	ID               string            `json:"id"`
	Method           string            `json:"method"`
	URL              string            `json:"url"`
	Status           int               `json:"status"`
	OK               bool              `json:"ok"`
	Message          string            `json:"message,omitempty"`
	DocumentationURL string            `json:"documentation_url,omitempty"`
	Headers          map[string]string `json:"headers,omitempty"`
	ExecutedAt       time.Time         `json:"executed_at"`
}

// NewSuccessEvent builds an Event from a normalized response.
func NewSuccessEvent(req request.Options, resp *request.Response) Event {
	evt := newEvent(req)
	if resp != nil {
		evt.URL = resp.URL
		evt.Status = resp.Status
		evt.Headers = resp.Headers
	}
	evt.OK = true
	return evt
}

// NewFailureEvent builds an Event from a request error.
func NewFailureEvent(req request.Options, err *request.RequestError) Event {
	evt := newEvent(req)
	if err != nil {
		evt.Status = err.Status
		evt.Message = err.Message
		evt.DocumentationURL = err.DocumentationURL
		evt.Headers = err.Headers
	}
	return evt
}

func newEvent(req request.Options) Event {
	return Event{
		ID:         uuid.New().String(),
		Method:     req.Method,
		URL:        req.URL,
		ExecutedAt: time.Now().UTC(),
	}
}

// attributes returns the routing attributes attached to queue messages.
func (e Event) attributes() map[string]string {
	outcome := "failure"
	if e.OK {
		outcome = "success"
	}
	return map[string]string{
		"event_id": e.ID,
		"method":   e.Method,
		"outcome":  outcome,
	}
}
