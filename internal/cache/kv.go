package cache

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("cache: not found")
	ErrExpired  = errors.New("cache: expired")
)

// Stats summarizes the entries of a store at the moment of the scan.
// Concurrent mutation can make the counts momentarily inconsistent; the
// identity Total == Active + Expired always holds for a single scan.
type Stats struct {
	Total   int `json:"total"`
	Expired int `json:"expired"`
	Active  int `json:"active"`
}

// KV defines the minimal key-value cache contract with TTL semantics.
// Implementations must be safe for concurrent use by multiple goroutines.
type KV interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
}

// Store extends KV with the maintenance operations. Sweeps are never
// scheduled by a Store itself; cadence is the caller's responsibility.
type Store interface {
	KV
	// ClearExpired removes every entry past its expiry and reports how
	// many were removed.
	ClearExpired() (int, error)
	// Stats scans all entries and counts them.
	Stats() (Stats, error)
}

// IsMiss reports whether err is one of the benign lookup outcomes.
func IsMiss(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrExpired)
}
