package staticzip

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

// generateTestData produces semi-compressible data resembling the
// mix of markup and code a static asset directory holds.
func generateTestData(size int) []byte {
	data := make([]byte, size)
	pattern := []byte("div.container { display: flex; margin: 0 auto; } ")
	for i := range data {
		if i%7 == 0 {
			data[i] = byte(i % 256)
		} else {
			data[i] = pattern[i%len(pattern)]
		}
	}
	return data
}

func benchmarkEncoder(b *testing.B, algo Algorithm, size int) {
	cfg := DefaultConfig()
	cfg.ZopfliIterations = 3
	enc, err := encoders[algo](cfg)
	if err != nil {
		b.Fatalf("failed to build %s encoder: %v", algo, err)
	}
	data := generateTestData(size)

	b.ResetTimer()
	b.SetBytes(int64(size))
	for i := 0; i < b.N; i++ {
		if _, err := enc(data); err != nil {
			b.Fatalf("compress failed: %v", err)
		}
	}
}

func BenchmarkEncoderGzip4K(b *testing.B)    { benchmarkEncoder(b, AlgorithmGzip, 4*1024) }
func BenchmarkEncoderBrotli4K(b *testing.B)  { benchmarkEncoder(b, AlgorithmBrotli, 4*1024) }
func BenchmarkEncoderZstd4K(b *testing.B)    { benchmarkEncoder(b, AlgorithmZstd, 4*1024) }
func BenchmarkEncoderDeflate4K(b *testing.B) { benchmarkEncoder(b, AlgorithmDeflate, 4*1024) }
func BenchmarkEncoderLZ44K(b *testing.B)     { benchmarkEncoder(b, AlgorithmLZ4, 4*1024) }
func BenchmarkEncoderSnappy4K(b *testing.B)  { benchmarkEncoder(b, AlgorithmSnappy, 4*1024) }

func BenchmarkEncoderGzip64K(b *testing.B) { benchmarkEncoder(b, AlgorithmGzip, 64*1024) }
func BenchmarkEncoderZstd64K(b *testing.B) { benchmarkEncoder(b, AlgorithmZstd, 64*1024) }

// BenchmarkHandlerCacheHit measures the steady-state serving path:
// artifact already cached and fresh.
func BenchmarkHandlerCacheHit(b *testing.B) {
	cfg := DefaultConfig()
	cfg.Roots = []string{b.TempDir()}
	cfg.CacheDir = b.TempDir()
	cfg.Logger = quietLogger()
	cfg.Preference = []Algorithm{AlgorithmGzip}

	h, err := New(http.FileServer(http.Dir(cfg.Roots[0])), cfg)
	if err != nil {
		b.Fatalf("failed to create handler: %v", err)
	}

	path := cfg.Roots[0] + "/app.js"
	writeBenchAsset(b, path, generateTestData(16*1024))

	req := httptest.NewRequest(http.MethodGet, "/app.js", nil)
	req.Header.Set("Accept-Encoding", "gzip")

	// Prime the cache.
	h.ServeHTTP(httptest.NewRecorder(), req)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", w.Code)
		}
	}
}

func writeBenchAsset(b *testing.B, path string, data []byte) {
	b.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		b.Fatalf("failed to write asset: %v", err)
	}
	mtime := time.Now().Add(-time.Minute)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		b.Fatalf("failed to set mtime: %v", err)
	}
}
