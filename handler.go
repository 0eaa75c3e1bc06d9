package staticzip

import (
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
)

// Handler intercepts requests for static assets ahead of a normal
// static file handler. When a compressed variant can be served it
// answers the request itself from the sibling or cache file with the
// matching Content-Encoding; otherwise it falls through to next
// without touching the request.
type Handler struct {
	next  http.Handler
	cfg   *Config
	orch  *orchestrator
	log   *slog.Logger
	stats Stats
}

// New creates a compression handler in front of next. The config is
// validated once here and immutable afterwards; a broken cache
// location or an unknown algorithm in the preference order is fatal.
func New(next http.Handler, cfg *Config) (*Handler, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	h := &Handler{
		next: next,
		cfg:  cfg,
		log:  cfg.Logger,
	}
	orch, err := newOrchestrator(cfg, &h.stats)
	if err != nil {
		return nil, err
	}
	h.orch = orch
	return h, nil
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.next.ServeHTTP(w, r)
		return
	}

	absPath, info, ok := h.resolve(r.URL.Path)
	if !ok {
		h.next.ServeHTTP(w, r)
		return
	}

	accepted := parseAcceptEncoding(r.Header.Get("Accept-Encoding"))
	decision, err := h.orch.locate(absPath, info, accepted)
	if err != nil {
		// Recoverable by design: log and serve the original.
		h.log.Warn("staticzip: serving uncompressed after failure",
			"path", r.URL.Path, "error", err)
	}
	if decision == nil {
		atomic.AddInt64(&h.stats.Fallthroughs, 1)
		h.next.ServeHTTP(w, r)
		return
	}

	h.stats.IncrementAlgorithmCount(decision.Algorithm)
	h.log.Debug("staticzip: serving compressed variant",
		"path", r.URL.Path, "algorithm", decision.Algorithm, "source", decision.Source)

	w.Header().Set("Content-Encoding", decision.Encoding)
	w.Header().Add("Vary", "Accept-Encoding")
	w.Header().Set("Content-Type", contentType(absPath))
	http.ServeFile(w, r, decision.Path)
}

// resolve maps a request path onto the first configured root that
// holds a matching regular file. The path is cleaned before joining
// so it cannot climb out of a root; with serve_dirs_only set,
// symlinked escapes are rejected as well.
func (h *Handler) resolve(urlPath string) (string, fs.FileInfo, bool) {
	rel := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if rel == "" {
		return "", nil, false
	}
	for _, root := range h.cfg.Roots {
		candidate := filepath.Join(root, filepath.FromSlash(rel))
		info, err := os.Stat(candidate)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if h.cfg.ServeDirsOnly && !h.underRoot(candidate, root) {
			continue
		}
		return candidate, info, true
	}
	return "", nil, false
}

// underRoot reports whether the fully resolved candidate still lives
// below the root after following symlinks.
func (h *Handler) underRoot(candidate, root string) bool {
	resolved, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		return false
	}
	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(resolvedRoot, resolved)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// GetStats returns a snapshot of the current statistics
func (h *Handler) GetStats() *Stats {
	snap := &Stats{
		SiblingHits:        atomic.LoadInt64(&h.stats.SiblingHits),
		CacheHits:          atomic.LoadInt64(&h.stats.CacheHits),
		Compressions:       atomic.LoadInt64(&h.stats.Compressions),
		Fallthroughs:       atomic.LoadInt64(&h.stats.Fallthroughs),
		EncodeFailures:     atomic.LoadInt64(&h.stats.EncodeFailures),
		CacheWriteFailures: atomic.LoadInt64(&h.stats.CacheWriteFailures),
		BytesIn:            atomic.LoadInt64(&h.stats.BytesIn),
		BytesOut:           atomic.LoadInt64(&h.stats.BytesOut),
	}
	h.stats.AlgorithmCounts.Range(func(key, value any) bool {
		snap.AlgorithmCounts.Store(key, value)
		return true
	})
	return snap
}

// contentType derives the response content type from the original
// file's name, never from the compressed artifact, so the serving
// layer does not sniff compressed bytes.
func contentType(origPath string) string {
	if ctype := mime.TypeByExtension(filepath.Ext(origPath)); ctype != "" {
		return ctype
	}
	return "application/octet-stream"
}
