package staticzip

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the static compression configuration. It is read once
// at startup and never mutated afterwards; New compiles the derived
// state (filters, encoders) and keeps its own reference.
type Config struct {
	// Roots are the directories static assets are served from.
	// Request paths are resolved against them in order.
	Roots []string `yaml:"roots"`

	// MimeTypes lists the content types eligible for compression,
	// e.g. "text/css" or "application/javascript".
	MimeTypes []string `yaml:"mime_types"`

	// Suffixes lists additional eligible file suffixes that mime
	// detection misses, e.g. "js.map" or "min.css".
	Suffixes []string `yaml:"suffixes"`

	// SuffixPattern extracts the suffix of a request path for the
	// Suffixes match. The default covers multi-dot suffixes.
	SuffixPattern string `yaml:"suffix_pattern"`

	// CacheDir is where compressed artifacts are written. It is
	// created if missing and must be writable.
	CacheDir string `yaml:"cache_dir"`

	// Preference is the server-side algorithm order used to break
	// ties among the encodings a client accepts.
	Preference []Algorithm `yaml:"preference"`

	// Quality parameters. Out-of-range values are clamped to the
	// nearest valid bound with a logged warning.
	ZlibLevel        int `yaml:"zlib_level"`        // gzip and deflate, 0-9
	ZopfliIterations int `yaml:"zopfli_iterations"` // 1 or more
	BrotliQuality    int `yaml:"brotli_quality"`    // 0-11
	ZstdLevel        int `yaml:"zstd_level"`        // -5 to 22
	LZ4Level         int `yaml:"lz4_level"`         // 0-9, 0 is the fast path

	// UseZopfli substitutes the zopfli encoder whenever gzip is
	// selected, trading CPU for a smaller artifact.
	UseZopfli bool `yaml:"use_zopfli"`

	// CheckPreCompressed probes for sibling files (asset.js.gz next
	// to asset.js) before compressing on the fly.
	CheckPreCompressed bool `yaml:"check_pre_compressed"`

	// OnTheFly permits compressing assets at request time. When
	// false, only siblings and existing cache artifacts are served.
	OnTheFly bool `yaml:"on_the_fly"`

	// ServeDirsOnly restricts compressed serving to paths that
	// resolve strictly under one of the configured roots.
	ServeDirsOnly bool `yaml:"serve_dirs_only"`

	// Logger receives warnings for clamped parameters and recovered
	// encode/cache failures. Defaults to slog.Default.
	Logger *slog.Logger `yaml:"-"`
}

// Maximum-effort defaults: artifacts are compressed once and served
// many times, so spending CPU at cache-fill time is the right trade.
const (
	defaultZlibLevel        = 9
	defaultZopfliIterations = 15
	defaultBrotliQuality    = 11
	defaultZstdLevel        = 9
	defaultSuffixPattern    = `\.[^/]+$`
)

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MimeTypes: []string{
			"text/css",
			"text/html",
			"text/javascript",
			"application/javascript",
			"application/json",
			"image/svg+xml",
		},
		Suffixes:           []string{"js.map", "css.map", "min.js", "min.css"},
		SuffixPattern:      defaultSuffixPattern,
		Preference:         []Algorithm{AlgorithmBrotli, AlgorithmZstd, AlgorithmGzip, AlgorithmDeflate},
		ZlibLevel:          defaultZlibLevel,
		ZopfliIterations:   defaultZopfliIterations,
		BrotliQuality:      defaultBrotliQuality,
		ZstdLevel:          defaultZstdLevel,
		CheckPreCompressed: true,
		OnTheFly:           true,
	}
}

// LoadConfig reads a YAML config file on top of the defaults.
// Unknown keys are rejected so typos surface at startup instead of
// silently disabling a switch.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("staticzip: reading config: %w", err)
	}
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("staticzip: parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// validate checks the fatal conditions and clamps the recoverable
// ones. Called from New; the config is immutable afterwards.
func (c *Config) validate() error {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if len(c.Roots) == 0 {
		return ErrNoRoots
	}
	if c.CacheDir == "" {
		return fmt.Errorf("%w: cache_dir not set", ErrNoCacheDir)
	}
	if err := os.MkdirAll(c.CacheDir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrNoCacheDir, err)
	}
	probe, err := os.CreateTemp(c.CacheDir, "probe-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoCacheDir, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	if len(c.Preference) == 0 {
		c.Preference = DefaultConfig().Preference
	}
	for _, algo := range c.Preference {
		if !Available(algo) {
			return fmt.Errorf("%w: %q in preference order", ErrUnsupportedAlgorithm, algo)
		}
	}
	if c.SuffixPattern == "" {
		c.SuffixPattern = defaultSuffixPattern
	}

	c.ZlibLevel = c.clamp("zlib_level", c.ZlibLevel, 0, 9)
	c.ZopfliIterations = c.clamp("zopfli_iterations", c.ZopfliIterations, 1, 1000)
	c.BrotliQuality = c.clamp("brotli_quality", c.BrotliQuality, 0, 11)
	c.ZstdLevel = c.clamp("zstd_level", c.ZstdLevel, -5, 22)
	c.LZ4Level = c.clamp("lz4_level", c.LZ4Level, 0, 9)
	return nil
}

// clamp bounds a quality parameter, logging when the configured
// value was out of range. A misconfigured level degrades to the
// nearest bound instead of breaking serving.
func (c *Config) clamp(name string, v, min, max int) int {
	clamped := v
	if clamped < min {
		clamped = min
	}
	if clamped > max {
		clamped = max
	}
	if clamped != v {
		c.Logger.Warn("staticzip: clamped out-of-range parameter",
			"parameter", name, "configured", v, "using", clamped)
	}
	return clamped
}
