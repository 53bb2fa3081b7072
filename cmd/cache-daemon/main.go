// cache-daemon serves a shared bbolt-backed TTL cache over a Unix domain
// socket so multiple meshdocs processes can reuse one store. It optionally
// runs the expiry sweep on a timer; the store itself never schedules one.
package main

import (
	"net"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/calebhart/meshdocs/internal/cache"
	"github.com/calebhart/meshdocs/internal/logger"
)

func main() {
	log := logger.New(false)
	defer log.Sync()

	sock := defaultString(os.Getenv("MESHDOCS_CACHE_SOCK"), defaultSocketPath())
	db := defaultString(os.Getenv("MESHDOCS_CACHE_DB"), defaultDBPath())

	// Ensure socket dir exists and remove stale socket
	_ = os.MkdirAll(filepath.Dir(sock), 0o755)
	_ = os.Remove(sock)

	l, err := net.Listen("unix", sock)
	if err != nil {
		log.Fatal("listen failed", zap.String("socket", sock), zap.Error(err))
	}
	defer l.Close()
	_ = os.Chmod(sock, 0o600)

	store, err := cache.Open(db, cache.Options{Bucket: "mesh", DefaultTTL: time.Hour})
	if err != nil {
		log.Fatal("opening cache db failed", zap.String("path", db), zap.Error(err))
	}
	defer store.Close()

	if interval := sweepInterval(); interval > 0 {
		go sweepLoop(store, interval, log)
	}

	log.Info("cache daemon listening", zap.String("socket", sock), zap.String("db", db))
	for {
		conn, err := l.Accept()
		if err != nil {
			continue
		}
		go cache.ServeConn(conn, store)
	}
}

func sweepLoop(store cache.Store, interval time.Duration, log *zap.Logger) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for range t.C {
		removed, err := store.ClearExpired()
		if err != nil {
			log.Warn("periodic sweep failed", zap.Error(err))
			continue
		}
		if removed > 0 {
			log.Info("periodic sweep", zap.Int("removed", removed))
		}
	}
}

// sweepInterval reads MESHDOCS_SWEEP_INTERVAL; zero disables the timer.
func sweepInterval() time.Duration {
	s := os.Getenv("MESHDOCS_SWEEP_INTERVAL")
	if s == "" {
		return 15 * time.Minute
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

func defaultSocketPath() string {
	home, _ := os.UserHomeDir()
	if home == "" {
		home = "."
	}
	return filepath.Join(home, ".cache", "meshdocs", "cache.sock")
}

func defaultDBPath() string {
	home, _ := os.UserHomeDir()
	if home == "" {
		home = "."
	}
	return filepath.Join(home, ".cache", "meshdocs", "cache.bbolt")
}

func defaultString(v, d string) string {
	if v == "" {
		return d
	}
	return v
}
