package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/calebhart/meshdocs/internal/cache"
	"github.com/calebhart/meshdocs/internal/catalog"
	"github.com/calebhart/meshdocs/internal/logger"
	"github.com/calebhart/meshdocs/internal/web"
)

// CLI is the top-level command structure for meshdocs.
type CLI struct {
	Debug       bool   `help:"Enable debug logging."`
	BaseURL     string `help:"Documentation site root." default:"https://www.meshdesignsystem.com"`
	Storybook   string `help:"Alternate-host documentation root." default:"https://storybook.meshdesignsystem.com"`
	Timeout     int    `help:"Fetch timeout in seconds." default:"30"`
	CacheDB     string `help:"Path to the bbolt cache file." env:"MESHDOCS_CACHE_DB"`
	CacheDir    string `help:"Use a directory of JSON records instead of bbolt." env:"MESHDOCS_CACHE_DIR"`
	CacheSocket string `help:"Unix socket of a running cache-daemon." env:"MESHDOCS_CACHE_SOCK"`

	List   ListCmd   `cmd:"" help:"List all design-system components."`
	Detail DetailCmd `cmd:"" help:"Show detail for one component."`
	Tokens TokensCmd `cmd:"" help:"Show design tokens."`
	Cache  CacheCmd  `cmd:"" help:"Cache maintenance."`
}

// app holds the shared instances built once at start and passed to every
// command.
type app struct {
	svc   *catalog.Service
	store cache.Store
	log   *zap.Logger
	close func() error
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("meshdocs"),
		kong.Description("Look up Mesh design-system components and tokens, with a persistent TTL cache."),
	)
	a, err := newApp(&cli)
	ctx.FatalIfErrorf(err)
	defer func() {
		if a.close != nil {
			_ = a.close()
		}
		_ = a.log.Sync()
	}()
	ctx.FatalIfErrorf(ctx.Run(a))
}

func newApp(cli *CLI) (*app, error) {
	log := logger.New(cli.Debug)
	store, closeStore, err := openStore(cli)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	fetcher := web.NewFetcher(web.WithTimeout(time.Duration(cli.Timeout) * time.Second))
	scraper := web.NewScraper(fetcher,
		web.WithBaseURL(cli.BaseURL),
		web.WithStorybookURL(cli.Storybook),
		web.WithLogger(log),
	)
	return &app{
		svc:   catalog.NewService(store, scraper, log),
		store: store,
		log:   log,
		close: closeStore,
	}, nil
}

func openStore(cli *CLI) (cache.Store, func() error, error) {
	switch {
	case cli.CacheSocket != "":
		// Probe so a dead daemon fails fast instead of per request.
		conn, err := net.DialTimeout("unix", cli.CacheSocket, 200*time.Millisecond)
		if err != nil {
			return nil, nil, err
		}
		_ = conn.Close()
		return cache.NewClient(cli.CacheSocket), nil, nil
	case cli.CacheDir != "":
		s, err := cache.OpenDir(cli.CacheDir, cache.Options{})
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	default:
		path := cli.CacheDB
		if path == "" {
			path = defaultDBPath()
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, err
		}
		s, err := cache.Open(path, cache.Options{})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
}

func defaultDBPath() string {
	home, _ := os.UserHomeDir()
	if home == "" {
		home = "."
	}
	return filepath.Join(home, ".cache", "meshdocs", "cache.bbolt")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ListCmd prints every component name.
type ListCmd struct{}

func (c *ListCmd) Run(a *app) error {
	names, err := a.svc.ListComponents(context.Background())
	if err != nil {
		return err
	}
	return printJSON(names)
}

// DetailCmd prints the detail record for one component.
type DetailCmd struct {
	Name    string `arg:"" help:"Component name, e.g. \"Date Picker\"."`
	Refresh bool   `help:"Drop the cached record and re-scrape."`
}

func (c *DetailCmd) Run(a *app) error {
	if c.Refresh {
		if err := a.svc.InvalidateComponent(c.Name); err != nil {
			a.log.Warn("cache invalidation failed", zap.Error(err))
		}
	}
	detail, err := a.svc.ComponentDetails(context.Background(), c.Name)
	if errors.Is(err, web.ErrComponentNotFound) {
		return fmt.Errorf("component %q not found", c.Name)
	}
	if err != nil {
		return err
	}
	return printJSON(detail)
}

// TokensCmd prints design tokens.
type TokensCmd struct {
	Type string `help:"Token category: colors, typography, spacing or all." default:"all" enum:"colors,typography,spacing,all"`
}

func (c *TokensCmd) Run(a *app) error {
	tokens, err := a.svc.DesignTokens(context.Background(), c.Type)
	if err != nil {
		return err
	}
	return printJSON(tokens)
}

// CacheCmd groups the cache maintenance commands.
type CacheCmd struct {
	Sweep  CacheSweepCmd  `cmd:"" help:"Remove expired cache entries."`
	Stats  CacheStatsCmd  `cmd:"" help:"Show cache entry counts."`
	Delete CacheDeleteCmd `cmd:"" help:"Delete one cache entry by key."`
}

type CacheSweepCmd struct{}

func (c *CacheSweepCmd) Run(a *app) error {
	removed, err := a.svc.SweepCache()
	if err != nil {
		return err
	}
	return printJSON(map[string]int{"removed": removed})
}

type CacheStatsCmd struct{}

func (c *CacheStatsCmd) Run(a *app) error {
	stats, err := a.svc.CacheStats()
	if err != nil {
		return err
	}
	return printJSON(stats)
}

type CacheDeleteCmd struct {
	Key string `arg:"" help:"Cache key to delete."`
}

func (c *CacheDeleteCmd) Run(a *app) error {
	return a.store.Delete(c.Key)
}
