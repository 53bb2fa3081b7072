package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const fileExt = ".json"

// FileStore keeps one JSON record per logical key in a flat directory.
// Payload and expiry metadata live in the same record, and writes go
// through a temp file followed by a rename, so readers never see a torn
// entry. It is safe for concurrent use by multiple goroutines.
type FileStore struct {
	dir        string
	defaultTTL time.Duration
	mu         sync.RWMutex
}

// OpenDir initializes a FileStore rooted at dir, creating it if needed.
func OpenDir(dir string, opts Options) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir, defaultTTL: opts.DefaultTTL}, nil
}

// safeKey makes a key usable as a file name by replacing path separators.
func safeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", string(os.PathSeparator), "_")
	return r.Replace(key)
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, safeKey(key)+fileExt)
}

// Put stores value with an absolute expiration computed as now+ttl,
// overwriting any prior entry for key. If ttl <= 0, DefaultTTL is used;
// if DefaultTTL <= 0, the item never expires.
func (s *FileStore) Put(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	buf, err := json.MarshalIndent(newEntry(key, value, ttl), "", "  ")
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tmp, err := os.CreateTemp(s.dir, "."+safeKey(key)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path(key))
}

// Get returns the cached value if present and not expired. Expired or
// undecodable records are removed before the miss is reported.
func (s *FileStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	buf, err := os.ReadFile(s.path(key))
	s.mu.RUnlock()
	if err != nil {
		return nil, ErrNotFound
	}
	var e entry
	if json.Unmarshal(buf, &e) != nil {
		_ = s.Delete(key)
		return nil, ErrNotFound
	}
	if e.expired() {
		_ = s.Delete(key)
		return nil, ErrExpired
	}
	return e.Value, nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path(key))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// ClearExpired sweeps the directory and removes every record past its
// expiry, along with any record that no longer decodes.
func (s *FileStore) ClearExpired() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names, err := s.recordNames()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, name := range names {
		p := filepath.Join(s.dir, name)
		buf, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		var e entry
		if json.Unmarshal(buf, &e) == nil && !e.expired() {
			continue
		}
		if os.Remove(p) == nil {
			removed++
		}
	}
	return removed, nil
}

// Stats counts all records at call time.
func (s *FileStore) Stats() (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names, err := s.recordNames()
	if err != nil {
		return Stats{}, err
	}
	var st Stats
	for _, name := range names {
		buf, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		st.Total++
		var e entry
		if json.Unmarshal(buf, &e) != nil || e.expired() {
			st.Expired++
		} else {
			st.Active++
		}
	}
	return st, nil
}

func (s *FileStore) recordNames() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), fileExt) || strings.HasPrefix(de.Name(), ".") {
			continue
		}
		names = append(names, de.Name())
	}
	return names, nil
}
