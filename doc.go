// Package staticzip serves pre-compressed variants of static assets
// from a lazily maintained cache directory.
//
// It sits in front of a normal static file handler. For every GET or
// HEAD request it decides whether a compressed variant should be
// served instead of the original: a pre-compressed sibling file, a
// fresh artifact from the cache directory, or one compressed on the
// fly, written atomically to the cache, and served. Anything else
// falls through to the wrapped handler untouched — a compression or
// caching failure never turns into a request failure.
//
// # Features
//
//   - Content negotiation against a configured algorithm preference order
//   - gzip, zopfli, brotli, deflate, zstd encoders (plus lz4 and snappy
//     for clients that speak their non-standard tokens)
//   - Pre-compressed sibling detection (app.js.gz next to app.js)
//   - Freshness-checked cache artifacts, refreshed when the original changes
//   - Atomic artifact publication, safe under concurrent requests
//   - Mime-type and suffix eligibility filters
//   - Statistics tracking
//
// # Quick Start
//
//	cfg := staticzip.DefaultConfig()
//	cfg.Roots = []string{"/srv/www/static"}
//	cfg.CacheDir = "/var/cache/staticzip"
//
//	h, err := staticzip.New(http.FileServer(http.Dir("/srv/www/static")), cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	http.ListenAndServe(":8080", h)
//
// Artifacts are created on first qualifying request and overwritten
// when found stale. The cache directory is never cleaned up by this
// package; eviction is an operational concern.
package staticzip
