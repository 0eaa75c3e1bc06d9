package staticzip

import (
	"path/filepath"
	"strings"
)

// Algorithm represents a compression algorithm
type Algorithm string

const (
	AlgorithmGzip    Algorithm = "gzip"
	AlgorithmZopfli  Algorithm = "zopfli"
	AlgorithmBrotli  Algorithm = "brotli"
	AlgorithmDeflate Algorithm = "deflate"
	AlgorithmZstd    Algorithm = "zstd"
	AlgorithmLZ4     Algorithm = "lz4"
	AlgorithmSnappy  Algorithm = "snappy"
)

// Extension mapping for cache artifacts and pre-compressed siblings.
// Zopfli emits a gzip container, so it shares the .gz namespace: a
// zopfli artifact is a valid gzip stream and vice versa.
var extensionMap = map[Algorithm]string{
	AlgorithmGzip:    ".gz",
	AlgorithmZopfli:  ".gz",
	AlgorithmBrotli:  ".br",
	AlgorithmDeflate: ".deflate",
	AlgorithmZstd:    ".zst",
	AlgorithmLZ4:     ".lz4",
	AlgorithmSnappy:  ".sz",
}

// Content-coding token emitted in the Content-Encoding header. The
// lz4 and snappy tokens are not IANA-registered; those algorithms are
// only used when explicitly configured.
var encodingMap = map[Algorithm]string{
	AlgorithmGzip:    "gzip",
	AlgorithmZopfli:  "gzip",
	AlgorithmBrotli:  "br",
	AlgorithmDeflate: "deflate",
	AlgorithmZstd:    "zstd",
	AlgorithmLZ4:     "lz4",
	AlgorithmSnappy:  "snappy",
}

// Reverse mapping from content-coding token to the algorithm that
// serves it. Zopfli is absent on purpose: clients ask for "gzip" and
// the configuration decides which gzip encoder satisfies it.
var tokenMap = map[string]Algorithm{
	"gzip":    AlgorithmGzip,
	"x-gzip":  AlgorithmGzip,
	"br":      AlgorithmBrotli,
	"deflate": AlgorithmDeflate,
	"zstd":    AlgorithmZstd,
	"lz4":     AlgorithmLZ4,
	"snappy":  AlgorithmSnappy,
}

// GetExtension returns the file extension for an algorithm
func GetExtension(algo Algorithm) string {
	if ext, ok := extensionMap[algo]; ok {
		return ext
	}
	return ""
}

// GetEncoding returns the content-coding token for an algorithm
func GetEncoding(algo Algorithm) string {
	if enc, ok := encodingMap[algo]; ok {
		return enc
	}
	return ""
}

// AlgorithmForToken maps a content-coding token to an algorithm
func AlgorithmForToken(token string) (Algorithm, bool) {
	algo, ok := tokenMap[strings.ToLower(token)]
	return algo, ok
}

// DetectAlgorithmFromExtension detects the algorithm from a file
// extension, for example on a pre-compressed sibling
func DetectAlgorithmFromExtension(name string) (Algorithm, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz", ".gzip":
		return AlgorithmGzip, true
	case ".br":
		return AlgorithmBrotli, true
	case ".deflate":
		return AlgorithmDeflate, true
	case ".zst", ".zstd":
		return AlgorithmZstd, true
	case ".lz4":
		return AlgorithmLZ4, true
	case ".sz", ".snappy":
		return AlgorithmSnappy, true
	}
	return "", false
}

// Available reports whether an algorithm has a registered encoder in
// this build
func Available(algo Algorithm) bool {
	_, ok := encoders[algo]
	return ok
}

// Algorithms returns all algorithms with a registered encoder
func Algorithms() []Algorithm {
	algos := make([]Algorithm, 0, len(encoders))
	for _, algo := range algorithmOrder {
		if Available(algo) {
			algos = append(algos, algo)
		}
	}
	return algos
}

// algorithmOrder gives Algorithms a stable listing order
var algorithmOrder = []Algorithm{
	AlgorithmBrotli,
	AlgorithmZstd,
	AlgorithmGzip,
	AlgorithmZopfli,
	AlgorithmDeflate,
	AlgorithmLZ4,
	AlgorithmSnappy,
}
