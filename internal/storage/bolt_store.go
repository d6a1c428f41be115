package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	validatorBucket = "validators"
	expiryBytes     = 8
)

// boltStore implements a Store backed by BoltDB. Each value is an 8-byte
// big-endian expiry followed by the JSON encoded Validators.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	ttl             time.Duration
	cleanupInterval time.Duration
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(validatorBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		ttl:             opts.TTL,
		cleanupInterval: opts.CleanupInterval,
	}
	store.lastCleanup.Store(time.Now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Validators returns the unexpired validators stored for url.
func (b *boltStore) Validators(url string) (Validators, bool, error) {
	if b == nil || b.db == nil {
		return Validators{}, false, nil
	}

	now := time.Now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return Validators{}, false, err
	}

	var (
		out   Validators
		found bool
	)
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(validatorBucket))
		if bucket == nil {
			return fmt.Errorf("validator bucket missing")
		}

		key := []byte(url)
		value := bucket.Get(key)
		if value == nil {
			return nil
		}

		expiry, payload, ok := decodeEntry(value)
		if !ok || !expiry.After(now) {
			return bucket.Delete(key)
		}
		if err := json.Unmarshal(payload, &out); err != nil {
			return bucket.Delete(key)
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return Validators{}, false, err
	}
	return out, true, nil
}

// PutValidators stores v for url, replacing any previous entry. Empty
// validators remove the entry.
func (b *boltStore) PutValidators(url string, v Validators) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := time.Now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode validators: %w", err)
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(validatorBucket))
		if bucket == nil {
			return fmt.Errorf("validator bucket missing")
		}
		if v.Empty() {
			return bucket.Delete([]byte(url))
		}
		buf := make([]byte, expiryBytes, expiryBytes+len(payload))
		binary.BigEndian.PutUint64(buf, uint64(now.Add(b.ttl).Unix()))
		return bucket.Put([]byte(url), append(buf, payload...))
	})
}

// maybeCleanupExpired removes expired entries on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(validatorBucket))
		if bucket == nil {
			return fmt.Errorf("validator bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			expiry, _, ok := decodeEntry(v)
			if !ok || !expiry.After(now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

// decodeEntry splits a stored value into its expiry and payload.
func decodeEntry(value []byte) (time.Time, []byte, bool) {
	if len(value) < expiryBytes {
		return time.Time{}, nil, false
	}
	unix := int64(binary.BigEndian.Uint64(value[:expiryBytes]))
	if unix <= 0 {
		return time.Time{}, nil, false
	}
	return time.Unix(unix, 0), value[expiryBytes:], true
}
