package publishers

import (
	"context"
	"errors"
	"testing"
)

type stubPublisher struct {
	id     string
	typ    string
	err    error
	calls  int
	closed bool
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return s.typ }
func (s *stubPublisher) Publish(context.Context, Event) error {
	s.calls++
	return s.err
}
func (s *stubPublisher) Close() error {
	s.closed = true
	return nil
}

func TestFanoutPublishAggregatesErrors(t *testing.T) {
	ok := &stubPublisher{id: "ok", typ: "http"}
	bad := &stubPublisher{id: "bad", typ: "http", err: errors.New("failed")}
	last := &stubPublisher{id: "last", typ: "sqs"}
	fanout := NewFanout([]Publisher{ok, nil, bad, last})

	if fanout.Size() != 3 {
		t.Fatalf("Size = %d", fanout.Size())
	}
	count, err := fanout.Publish(context.Background(), Event{})
	if count != 2 {
		t.Fatalf("expected 2 successes, got %d", count)
	}
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
	if last.calls != 1 {
		t.Fatalf("failing sink must not stop later sinks")
	}
}

func TestFanoutCloseClosesPublishers(t *testing.T) {
	a := &stubPublisher{id: "a"}
	b := &stubPublisher{id: "b"}
	if err := NewFanout([]Publisher{a, failuresOnly{Publisher: b}}).Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !a.closed || !b.closed {
		t.Fatalf("expected both publishers closed")
	}
}

func TestNilFanoutIsInert(t *testing.T) {
	var f *Fanout
	if n, err := f.Publish(context.Background(), Event{}); n != 0 || err != nil {
		t.Fatalf("nil fanout Publish = %d, %v", n, err)
	}
	if f.Size() != 0 || f.Close() != nil {
		t.Fatalf("nil fanout must be inert")
	}
}

func TestBuildAllWithDefaultRegistry(t *testing.T) {
	pubs, err := BuildAll(context.Background(), DefaultRegistry(), []PublisherConfig{
		{ID: "http", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "https://example.com", Method: "POST"}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(pubs) != 1 || pubs[0].ID() != "http" {
		t.Fatalf("unexpected publishers %#v", pubs)
	}
}

func TestBuildAllRejectsUnknownType(t *testing.T) {
	if _, err := BuildAll(context.Background(), DefaultRegistry(), []PublisherConfig{{ID: "x", Type: "kafka"}}, nil); err == nil {
		t.Fatalf("expected error for unregistered type")
	}
}

func TestOnlyFailuresDropsSuccessfulEvents(t *testing.T) {
	stub := &stubPublisher{id: "s", typ: "stub"}
	reg := NewRegistry(map[string]Builder{
		"stub": func(context.Context, PublisherConfig, Logger) (Publisher, error) { return stub, nil },
	})

	pub, err := reg.PublisherFor(context.Background(), PublisherConfig{ID: "s", Type: "stub", OnlyFail: true}, nil)
	if err != nil {
		t.Fatalf("PublisherFor: %v", err)
	}
	_ = pub.Publish(context.Background(), Event{OK: true})
	_ = pub.Publish(context.Background(), Event{OK: false})
	if stub.calls != 1 {
		t.Fatalf("expected only the failure to be delivered, got %d calls", stub.calls)
	}
}
