package storage

import (
	"fmt"
	"strings"
	"time"
)

// Package storage keeps entity validators so repeated requests can be made conditional.

// Validators are the cache validators a server returned for a URL.
type Validators struct {
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
}

// Empty reports whether no validator is set.
func (v Validators) Empty() bool {
	return strings.TrimSpace(v.ETag) == "" && strings.TrimSpace(v.LastModified) == ""
}

// Store tracks validators per request URL.
type Store interface {
	Close() error
	Validators(url string) (Validators, bool, error)
	PutValidators(url string, v Validators) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

const (
	defaultTTL             = 7 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                                { return nil }
func (noopStore) Validators(string) (Validators, bool, error) { return Validators{}, false, nil }
func (noopStore) PutValidators(string, Validators) error      { return nil }
