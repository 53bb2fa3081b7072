package cache

import (
	"encoding/json"
	"time"

	bolt "go.etcd.io/bbolt"
)

// entry is the single on-disk record per logical key: payload and expiry
// metadata travel together so a reader can never observe one without the
// other.
type entry struct {
	Key        string    `json:"key"`
	Value      []byte    `json:"value"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at,omitzero"`
	TTLSeconds int64     `json:"ttl_seconds"`
}

func newEntry(key string, value []byte, ttl time.Duration) entry {
	now := time.Now()
	e := entry{
		Key:       key,
		Value:     append([]byte(nil), value...),
		CreatedAt: now,
	}
	if ttl > 0 {
		e.ExpiresAt = now.Add(ttl)
		e.TTLSeconds = int64(ttl / time.Second)
	}
	return e
}

func (e entry) expired() bool {
	return !e.ExpiresAt.IsZero() && time.Now().After(e.ExpiresAt)
}

// BoltStore provides a persistent TTL cache backed by a single bbolt
// bucket. It is safe for concurrent use by multiple goroutines.
type BoltStore struct {
	db         *bolt.DB
	bucket     []byte
	defaultTTL time.Duration
}

type Options struct {
	// Bucket is the name of the Bolt bucket to use.
	Bucket string
	// DefaultTTL is used when Put is called with ttl <= 0.
	DefaultTTL time.Duration
}

// Open initializes or opens a BoltStore at the given path.
func Open(path string, opts Options) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	bucket := []byte("cache")
	if opts.Bucket != "" {
		bucket = []byte(opts.Bucket)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db, bucket: bucket, defaultTTL: opts.DefaultTTL}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put stores value with an absolute expiration computed as now+ttl.
// If ttl <= 0, DefaultTTL is used; if DefaultTTL <= 0, the item never
// expires. An existing entry for key is overwritten unconditionally.
func (s *BoltStore) Put(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	buf, err := json.Marshal(newEntry(key, value, ttl))
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), buf)
	})
}

// Get returns the cached value if present and not expired. An expired or
// undecodable record is deleted as a side effect before the miss is
// reported.
func (s *BoltStore) Get(key string) ([]byte, error) {
	var out []byte
	missErr := error(nil)
	if err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		v := b.Get([]byte(key))
		if v == nil {
			missErr = ErrNotFound
			return nil
		}
		var e entry
		if json.Unmarshal(v, &e) != nil {
			missErr = ErrNotFound
			return b.Delete([]byte(key))
		}
		if e.expired() {
			missErr = ErrExpired
			return b.Delete([]byte(key))
		}
		out = append([]byte(nil), e.Value...)
		return nil
	}); err != nil {
		return nil, err
	}
	if missErr != nil {
		return nil, missErr
	}
	return out, nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (s *BoltStore) Delete(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
}

// ClearExpired sweeps the bucket and removes every entry past its expiry,
// along with any record that no longer decodes. Unexpired entries are left
// untouched.
func (s *BoltStore) ClearExpired() (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		var stale [][]byte
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var e entry
			if json.Unmarshal(v, &e) != nil || e.expired() {
				stale = append(stale, append([]byte(nil), k...))
			}
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}

// Stats counts all entries at call time. Undecodable records count as
// expired since the next sweep will remove them.
func (s *BoltStore) Stats() (Stats, error) {
	var st Stats
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(_, v []byte) error {
			st.Total++
			var e entry
			if json.Unmarshal(v, &e) != nil || e.expired() {
				st.Expired++
			} else {
				st.Active++
			}
			return nil
		})
	})
	return st, err
}
