package cache

import (
	"bytes"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"
)

// startDaemon serves a BoltStore over a unix socket the way cache-daemon
// does and returns a connected client.
func startDaemon(t *testing.T) *Client {
	t.Helper()
	dir := t.TempDir()
	store, err := Open(filepath.Join(dir, "cache.bbolt"), Options{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	sock := filepath.Join(dir, "cache.sock")
	l, err := net.Listen("unix", sock)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go ServeConn(conn, store)
		}
	}()
	return NewClient(sock)
}

func TestClient_RoundTrip(t *testing.T) {
	c := startDaemon(t)

	value := []byte(`{"a":1}`)
	if err := c.Put("c2", value, time.Hour); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, err := c.Get("c2")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got, value) {
		t.Errorf("Get() = %q, want %q", got, value)
	}
}

func TestClient_MissAndExpiryMapToSentinels(t *testing.T) {
	c := startDaemon(t)

	if _, err := c.Get("absent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(absent) error = %v, want ErrNotFound", err)
	}
	if err := c.Put("short", []byte("v"), time.Second); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	time.Sleep(1100 * time.Millisecond)
	if _, err := c.Get("short"); !errors.Is(err, ErrExpired) {
		t.Errorf("Get(short) error = %v, want ErrExpired", err)
	}
}

func TestClient_SweepAndStats(t *testing.T) {
	c := startDaemon(t)

	if err := c.Put("stale", []byte("a"), time.Second); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := c.Put("fresh", []byte("b"), time.Hour); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	time.Sleep(1100 * time.Millisecond)

	st, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if st.Total != st.Active+st.Expired {
		t.Errorf("Total = %d, want Active+Expired = %d", st.Total, st.Active+st.Expired)
	}
	removed, err := c.ClearExpired()
	if err != nil {
		t.Fatalf("ClearExpired() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("ClearExpired() = %d, want 1", removed)
	}
	if err := c.Delete("fresh"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	after, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if after.Total != 0 {
		t.Errorf("Total after delete = %d, want 0", after.Total)
	}
}

func TestDispatch_UnknownOp(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "cache.bbolt"), Options{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	resp := Dispatch(Request{Op: "flush"}, store)
	if resp.OK || resp.Error == "" {
		t.Errorf("Dispatch(flush) = %+v, want error response", resp)
	}
}
