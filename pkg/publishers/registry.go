package publishers

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Builder creates a Publisher from a config entry.
type Builder func(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error)

// Registry maps publisher types to builders.
type Registry interface {
	Register(typ string, builder Builder)
	PublisherFor(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error)
}

type registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry returns a registry with optional pre-registered builders.
func NewRegistry(builders map[string]Builder) Registry {
	r := &registry{builders: make(map[string]Builder, len(builders))}
	for typ, b := range builders {
		r.Register(typ, b)
	}
	return r
}

func (r *registry) Register(typ string, builder Builder) {
	typ = strings.ToLower(strings.TrimSpace(typ))
	if typ == "" || builder == nil {
		return
	}
	r.mu.Lock()
	r.builders[typ] = builder
	r.mu.Unlock()
}

func (r *registry) PublisherFor(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("publisher %q has no type configured", cfg.ID)
	}

	r.mu.RLock()
	builder := r.builders[strings.ToLower(cfg.Type)]
	r.mu.RUnlock()

	if builder == nil {
		return nil, fmt.Errorf("no publisher registered for type %q", cfg.Type)
	}
	pub, err := builder(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if cfg.OnlyFail {
		pub = failuresOnly{Publisher: pub}
	}
	return pub, nil
}

// DefaultRegistry wires up every built-in sink.
func DefaultRegistry() Registry {
	return NewRegistry(map[string]Builder{
		TypeHTTP:      newHTTPPublisher,
		TypeSQS:       newSQSPublisher,
		TypeSNS:       newSNSPublisher,
		TypeGCPPubSub: newGCPPubSubPublisher,
	})
}

// BuildAll instantiates publishers for cfgs. Publishers built before a
// failure are closed.
func BuildAll(ctx context.Context, reg Registry, cfgs []PublisherConfig, log Logger) ([]Publisher, error) {
	if reg == nil || len(cfgs) == 0 {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	pubs := make([]Publisher, 0, len(cfgs))
	for _, cfg := range cfgs {
		pub, err := reg.PublisherFor(ctx, cfg, log)
		if err != nil {
			closeAll(pubs)
			return nil, fmt.Errorf("build publisher %q: %w", cfg.ID, err)
		}
		pubs = append(pubs, pub)
	}
	return pubs, nil
}

// failuresOnly drops successful outcomes before they reach the sink.
type failuresOnly struct {
	Publisher
}

func (f failuresOnly) Publish(ctx context.Context, evt Event) error {
	if evt.OK {
		return nil
	}
	return f.Publisher.Publish(ctx, evt)
}

func (f failuresOnly) Close() error {
	if c, ok := f.Publisher.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
