package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/calebhart/meshdocs/internal/cache"
	"github.com/calebhart/meshdocs/internal/web"
)

// memStore is an in-memory cache.Store with error injection.
type memStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
	getErr  error
	putErr  error
	puts    map[string]time.Duration // key -> last ttl
}

type memEntry struct {
	value     []byte
	expiresAt time.Time
}

func newMemStore() *memStore {
	return &memStore{
		entries: make(map[string]memEntry),
		puts:    make(map[string]time.Duration),
	}
}

func (m *memStore) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	e, ok := m.entries[key]
	if !ok {
		return nil, cache.ErrNotFound
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(m.entries, key)
		return nil, cache.ErrExpired
	}
	return e.value, nil
}

func (m *memStore) Put(key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	e := memEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	m.entries[key] = e
	m.puts[key] = ttl
	return nil
}

func (m *memStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *memStore) ClearExpired() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for k, e := range m.entries {
		if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
			delete(m.entries, k)
			removed++
		}
	}
	return removed, nil
}

func (m *memStore) Stats() (cache.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var st cache.Stats
	for _, e := range m.entries {
		st.Total++
		if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
			st.Expired++
		} else {
			st.Active++
		}
	}
	return st, nil
}

// countingNav serves one canned page for every URL and counts navigations.
type countingNav struct {
	mu    sync.Mutex
	html  string
	delay time.Duration
	count int
}

func (n *countingNav) Navigate(_ context.Context, rawURL string) (*web.Page, error) {
	n.mu.Lock()
	n.count++
	n.mu.Unlock()
	if n.delay > 0 {
		time.Sleep(n.delay)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(n.html))
	if err != nil {
		return nil, err
	}
	return &web.Page{
		URL:   rawURL,
		Title: strings.TrimSpace(doc.Find("head > title").First().Text()),
		Doc:   doc,
	}, nil
}

func (n *countingNav) calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count
}

// failingNav refuses every navigation.
type failingNav struct{}

func (failingNav) Navigate(_ context.Context, rawURL string) (*web.Page, error) {
	return nil, &web.FetchError{URL: rawURL, Err: errors.New("down")}
}

const indexHTML = `<body><a href="/components/button">Button</a><a href="/components/card">Card</a></body>`

func newTestService(store cache.Store, nav web.Navigator) *Service {
	return NewService(store, web.NewScraper(nav), nil)
}

func TestListComponents_CacheAside(t *testing.T) {
	store := newMemStore()
	nav := &countingNav{html: indexHTML}
	svc := newTestService(store, nav)

	first, err := svc.ListComponents(context.Background())
	if err != nil {
		t.Fatalf("ListComponents() error = %v", err)
	}
	if len(first) != 2 || first[0] != "Button" {
		t.Fatalf("ListComponents() = %v", first)
	}
	if nav.calls() != 1 {
		t.Fatalf("navigations = %d, want 1", nav.calls())
	}
	if ttl := store.puts["mesh_components_list"]; ttl != ListTTL {
		t.Errorf("list cached with ttl %v, want %v", ttl, ListTTL)
	}

	second, err := svc.ListComponents(context.Background())
	if err != nil {
		t.Fatalf("ListComponents() error = %v", err)
	}
	if nav.calls() != 1 {
		t.Errorf("navigations after cached call = %d, want 1", nav.calls())
	}
	if len(second) != 2 || second[1] != "Card" {
		t.Errorf("cached ListComponents() = %v", second)
	}
}

func TestListComponents_CacheFailureIsInvisible(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("disk on fire")
	store.putErr = errors.New("disk still on fire")
	svc := newTestService(store, &countingNav{html: indexHTML})

	got, err := svc.ListComponents(context.Background())
	if err != nil {
		t.Fatalf("ListComponents() error = %v, want nil despite cache failure", err)
	}
	if len(got) != 2 {
		t.Errorf("ListComponents() = %v", got)
	}
}

func TestComponentDetails_CachesByLowercasedName(t *testing.T) {
	store := newMemStore()
	nav := &countingNav{html: `<body><p>A button triggers an action.</p></body>`}
	svc := newTestService(store, nav)

	d, err := svc.ComponentDetails(context.Background(), "Button")
	if err != nil {
		t.Fatalf("ComponentDetails() error = %v", err)
	}
	if d.Description == "" {
		t.Fatalf("Description empty: %+v", d)
	}
	if ttl := store.puts["mesh_component_button"]; ttl != DetailTTL {
		t.Errorf("detail cached with ttl %v, want %v", ttl, DetailTTL)
	}

	before := nav.calls()
	if _, err := svc.ComponentDetails(context.Background(), "Button"); err != nil {
		t.Fatalf("cached ComponentDetails() error = %v", err)
	}
	if nav.calls() != before {
		t.Errorf("navigations grew on cached call: %d -> %d", before, nav.calls())
	}
}

func TestComponentDetails_NotFoundIsNotCached(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, failingNav{})

	_, err := svc.ComponentDetails(context.Background(), "Ghost")
	if !errors.Is(err, web.ErrComponentNotFound) {
		t.Fatalf("error = %v, want ErrComponentNotFound", err)
	}
	if len(store.entries) != 0 {
		t.Errorf("store entries = %v, want none for a not-found result", store.entries)
	}
}

func TestDesignTokens_EmptyKindMeansAll(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, failingNav{})

	ts, err := svc.DesignTokens(context.Background(), "")
	if err != nil {
		t.Fatalf("DesignTokens() error = %v", err)
	}
	if len(ts.Colors) == 0 || len(ts.Typography) == 0 || len(ts.Spacing) == 0 {
		t.Errorf("TokenSet = %+v, want full builtin set", ts)
	}
	if _, ok := store.puts["mesh_design_tokens_all"]; !ok {
		t.Errorf("puts = %v, want mesh_design_tokens_all", store.puts)
	}
}

func TestConcurrentMissesAreCoalesced(t *testing.T) {
	store := newMemStore()
	nav := &countingNav{html: indexHTML, delay: 50 * time.Millisecond}
	svc := newTestService(store, nav)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.ListComponents(context.Background()); err != nil {
				t.Errorf("ListComponents() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if nav.calls() != 1 {
		t.Errorf("navigations = %d, want 1 (single flight per key)", nav.calls())
	}
}

func TestSweepAndStatsPassThrough(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, failingNav{})

	if err := store.Put("stale", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	if err := store.Put("fresh", []byte("y"), time.Hour); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	st, err := svc.CacheStats()
	if err != nil {
		t.Fatalf("CacheStats() error = %v", err)
	}
	if st.Total != st.Active+st.Expired {
		t.Errorf("Total = %d, want Active+Expired = %d", st.Total, st.Active+st.Expired)
	}
	removed, err := svc.SweepCache()
	if err != nil {
		t.Fatalf("SweepCache() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("SweepCache() = %d, want 1", removed)
	}
}
