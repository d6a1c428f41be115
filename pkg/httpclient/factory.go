package httpclient

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Constructor builds a named Transport.
type Constructor func(cfg TransportConfig) (Transport, error)

const (
	TransportResty   = "resty"
	TransportNetHTTP = "nethttp"
)

var (
	mu       sync.RWMutex
	registry = map[string]Constructor{
		TransportResty:   func(cfg TransportConfig) (Transport, error) { return NewRestyTransport(cfg), nil },
		TransportNetHTTP: func(cfg TransportConfig) (Transport, error) { return NewNetHTTPTransport(cfg), nil },
	}
)

// Register associates a constructor with a transport name. Names are
// lower-cased; registering an existing name overwrites it.
func Register(name string, ctor Constructor) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || ctor == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	registry[name] = ctor
}

// New constructs the named transport. Empty name selects resty.
func New(name string, cfg TransportConfig) (Transport, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = TransportResty
	}

	mu.RLock()
	ctor, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("transport %q not registered: available transports=%v", name, Available())
	}

	t, err := ctor(cfg)
	if err != nil {
		return nil, fmt.Errorf("construct transport %q: %w", name, err)
	}
	if t == nil {
		return nil, fmt.Errorf("transport constructor %q returned nil", name)
	}
	return t, nil
}

// Available returns the sorted list of registered transport names.
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
