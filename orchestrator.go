package staticzip

import (
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
)

// Source records where a served compressed variant came from
type Source string

const (
	SourceSibling    Source = "sibling"    // pre-compressed file next to the original
	SourceCache      Source = "cache"      // fresh artifact already in the cache dir
	SourceCompressed Source = "compressed" // compressed on the fly for this request
)

// Decision is the terminal Served state of a request: the file to
// hand to the serving layer and the content coding it carries. A nil
// *Decision means Fallthrough — serve the original untouched.
type Decision struct {
	Path      string
	Algorithm Algorithm
	Encoding  string
	Source    Source
}

// orchestrator drives the per-request state machine: eligibility,
// encoding negotiation, sibling probe, cache lookup, and on-the-fly
// compression. It owns the compiled filters and the instantiated
// encoders, including the persistent zstd context.
type orchestrator struct {
	cfg      *Config
	cache    *cache
	encoders map[Algorithm]encodeFunc
	mimeSet  map[string]bool
	suffixes map[string]bool
	suffixRe *regexp.Regexp
	stats    *Stats
}

func newOrchestrator(cfg *Config, stats *Stats) (*orchestrator, error) {
	suffixRe, err := regexp.Compile(cfg.SuffixPattern)
	if err != nil {
		return nil, fmt.Errorf("staticzip: suffix_pattern: %w", err)
	}

	o := &orchestrator{
		cfg:      cfg,
		cache:    &cache{dir: cfg.CacheDir},
		encoders: make(map[Algorithm]encodeFunc),
		mimeSet:  make(map[string]bool, len(cfg.MimeTypes)),
		suffixes: make(map[string]bool, len(cfg.Suffixes)),
		suffixRe: suffixRe,
		stats:    stats,
	}
	for _, mt := range cfg.MimeTypes {
		o.mimeSet[strings.ToLower(mt)] = true
	}
	for _, s := range cfg.Suffixes {
		o.suffixes[strings.ToLower(strings.TrimPrefix(s, "."))] = true
	}

	// Instantiate an encoder for every algorithm the preference
	// order can select, applying the zopfli substitution up front.
	for _, algo := range cfg.Preference {
		eff := o.effective(algo)
		if _, done := o.encoders[eff]; done {
			continue
		}
		enc, err := encoders[eff](cfg)
		if err != nil {
			return nil, fmt.Errorf("staticzip: initializing %s encoder: %w", eff, err)
		}
		o.encoders[eff] = enc
	}
	return o, nil
}

// effective applies the use_zopfli switch: when set, the zopfli
// encoder satisfies a gzip selection (the artifact is still a gzip
// stream, served with the gzip content coding).
func (o *orchestrator) effective(algo Algorithm) Algorithm {
	if algo == AlgorithmGzip && o.cfg.UseZopfli {
		return AlgorithmZopfli
	}
	return algo
}

// eligible reports whether a path's type qualifies for compression
// handling at all, by configured mime type or file suffix.
func (o *orchestrator) eligible(name string) bool {
	base := filepath.Base(name)
	if m := o.suffixRe.FindString(base); m != "" {
		if o.suffixes[strings.ToLower(strings.TrimPrefix(m, "."))] {
			return true
		}
	}
	ctype := mime.TypeByExtension(filepath.Ext(base))
	if ctype == "" {
		return false
	}
	if idx := strings.IndexByte(ctype, ';'); idx >= 0 {
		ctype = ctype[:idx]
	}
	return o.mimeSet[strings.ToLower(strings.TrimSpace(ctype))]
}

// selectAlgorithm intersects the client's accepted encodings with
// the server preference order, left to right. The first mutually
// acceptable algorithm wins; client q-value ordering never overrides
// the configured order.
func (o *orchestrator) selectAlgorithm(accepted acceptedEncodings) (Algorithm, bool) {
	for _, algo := range o.cfg.Preference {
		eff := o.effective(algo)
		if _, ok := o.encoders[eff]; !ok {
			continue
		}
		if accepted.accepts(GetEncoding(eff)) {
			return eff, true
		}
	}
	return "", false
}

// locate runs the state machine for one request against a resolved
// original file. It returns a Decision to serve a compressed
// variant, or nil for Fallthrough. A non-nil error is always
// recoverable: the handler logs it and falls through, it never
// becomes a request failure. No second algorithm is attempted after
// a failure, to bound per-request latency.
func (o *orchestrator) locate(absPath string, origInfo fs.FileInfo, accepted acceptedEncodings) (*Decision, error) {
	if !o.eligible(absPath) {
		return nil, nil
	}

	algo, ok := o.selectAlgorithm(accepted)
	if !ok {
		return nil, nil
	}
	encoding := GetEncoding(algo)

	if o.cfg.CheckPreCompressed {
		sibling := absPath + GetExtension(algo)
		if o.cache.isFresh(sibling, origInfo.ModTime()) {
			atomic.AddInt64(&o.stats.SiblingHits, 1)
			return &Decision{Path: sibling, Algorithm: algo, Encoding: encoding, Source: SourceSibling}, nil
		}
	}

	artifact := o.cache.artifactPath(absPath, algo)
	if o.cache.isFresh(artifact, origInfo.ModTime()) {
		atomic.AddInt64(&o.stats.CacheHits, 1)
		return &Decision{Path: artifact, Algorithm: algo, Encoding: encoding, Source: SourceCache}, nil
	}

	if !o.cfg.OnTheFly {
		return nil, nil
	}

	src, err := os.ReadFile(absPath)
	if err != nil {
		// The original vanished between stat and read. Let the
		// serving layer produce its own answer.
		return nil, err
	}

	compressed, err := o.encoders[algo](src)
	if err != nil {
		atomic.AddInt64(&o.stats.EncodeFailures, 1)
		return nil, &EncodeError{Algorithm: algo, Err: err}
	}

	if err := o.cache.publish(artifact, compressed); err != nil {
		atomic.AddInt64(&o.stats.CacheWriteFailures, 1)
		return nil, &CacheWriteError{Path: artifact, Err: err}
	}

	atomic.AddInt64(&o.stats.Compressions, 1)
	atomic.AddInt64(&o.stats.BytesIn, int64(len(src)))
	atomic.AddInt64(&o.stats.BytesOut, int64(len(compressed)))
	return &Decision{Path: artifact, Algorithm: algo, Encoding: encoding, Source: SourceCompressed}, nil
}
