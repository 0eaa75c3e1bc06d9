package staticzip

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedAlgorithm = errors.New("staticzip: unsupported compression algorithm")
	ErrNoCacheDir           = errors.New("staticzip: cache directory missing or not writable")
	ErrNoRoots              = errors.New("staticzip: no served root directories configured")
)

// EncodeError reports that an encoder rejected its input. It is
// recovered inside the handler: the request falls through to the
// uncompressed original and the failure is only logged.
type EncodeError struct {
	Algorithm Algorithm
	Err       error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("staticzip: %s encode failed: %v", e.Algorithm, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// CacheWriteError reports that a compressed artifact could not be
// materialized in the cache directory (disk full, permissions).
// Recovered exactly like EncodeError: a caching failure must never
// prevent serving the original content.
type CacheWriteError struct {
	Path string
	Err  error
}

func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("staticzip: cache write %s: %v", e.Path, e.Err)
}

func (e *CacheWriteError) Unwrap() error { return e.Err }
