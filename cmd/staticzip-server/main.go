// Command staticzip-server serves one or more static directories
// with encoding negotiation and a compression cache in front.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/staticzip/staticzip"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = pflag.String("config", "", "path to YAML configuration file")
		listen     = pflag.String("listen", ":8080", "address to listen on")
		roots      = pflag.StringSlice("root", nil, "served root directory (repeatable, overrides config)")
		cacheDir   = pflag.String("cache-dir", "", "cache directory (overrides config)")
		verbose    = pflag.Bool("verbose", false, "log per-request serving decisions")
	)
	pflag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := staticzip.DefaultConfig()
	if *configPath != "" {
		loaded, err := staticzip.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "staticzip-server: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	if len(*roots) > 0 {
		cfg.Roots = *roots
	}
	if *cacheDir != "" {
		cfg.CacheDir = *cacheDir
	}
	cfg.Logger = logger

	if len(cfg.Roots) == 0 {
		fmt.Fprintln(os.Stderr, "staticzip-server: no roots configured; pass --root or a config file")
		return 1
	}
	if cfg.CacheDir == "" {
		dir, err := os.MkdirTemp("", "staticzip-cache-")
		if err != nil {
			fmt.Fprintf(os.Stderr, "staticzip-server: creating cache dir: %v\n", err)
			return 1
		}
		logger.Info("using temporary cache directory", "dir", dir)
		cfg.CacheDir = dir
	}

	handler, err := staticzip.New(newFileServer(cfg.Roots), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "staticzip-server: %v\n", err)
		return 1
	}

	logger.Info("listening", "addr", *listen, "roots", cfg.Roots, "cache", cfg.CacheDir)
	if err := http.ListenAndServe(*listen, handler); err != nil {
		fmt.Fprintf(os.Stderr, "staticzip-server: %v\n", err)
		return 1
	}
	return 0
}

// newFileServer builds the fallthrough handler. Each root is tried
// in order; the last one answers the request (including the 404)
// when no earlier root holds the file.
func newFileServer(roots []string) http.Handler {
	if len(roots) == 1 {
		return http.FileServer(http.Dir(roots[0]))
	}
	servers := make([]http.Handler, len(roots))
	for i, root := range roots {
		servers[i] = http.FileServer(http.Dir(root))
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rel := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		for i, root := range roots {
			if i == len(roots)-1 {
				servers[i].ServeHTTP(w, r)
				return
			}
			if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel))); err == nil {
				servers[i].ServeHTTP(w, r)
				return
			}
		}
	})
}
