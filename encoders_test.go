package staticzip

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

var encoderTestData = []byte("The quick brown fox jumps over the lazy dog. " +
	"Compressible text repeats itself: repeats itself, repeats itself, repeats itself.")

func testEncoder(t *testing.T, algo Algorithm) encodeFunc {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ZopfliIterations = 3 // keep the test fast
	factory, ok := encoders[algo]
	if !ok {
		t.Fatalf("no encoder registered for %s", algo)
	}
	enc, err := factory(cfg)
	if err != nil {
		t.Fatalf("failed to build %s encoder: %v", algo, err)
	}
	return enc
}

func TestEncodersRoundTrip(t *testing.T) {
	decoders := map[Algorithm]func(r io.Reader) (io.Reader, error){
		AlgorithmGzip: func(r io.Reader) (io.Reader, error) { return gzip.NewReader(r) },
		// Zopfli emits a gzip container; decode it as gzip.
		AlgorithmZopfli:  func(r io.Reader) (io.Reader, error) { return gzip.NewReader(r) },
		AlgorithmDeflate: func(r io.Reader) (io.Reader, error) { return flate.NewReader(r), nil },
		AlgorithmBrotli:  func(r io.Reader) (io.Reader, error) { return brotli.NewReader(r), nil },
		AlgorithmZstd: func(r io.Reader) (io.Reader, error) {
			zr, err := zstd.NewReader(r)
			if err != nil {
				return nil, err
			}
			return zr.IOReadCloser(), nil
		},
		AlgorithmLZ4:    func(r io.Reader) (io.Reader, error) { return lz4.NewReader(r), nil },
		AlgorithmSnappy: func(r io.Reader) (io.Reader, error) { return snappy.NewReader(r), nil },
	}

	for algo, newDecoder := range decoders {
		t.Run(string(algo), func(t *testing.T) {
			enc := testEncoder(t, algo)

			compressed, err := enc(encoderTestData)
			if err != nil {
				t.Fatalf("compress failed: %v", err)
			}
			if len(compressed) == 0 {
				t.Fatal("expected non-empty output")
			}

			dec, err := newDecoder(bytes.NewReader(compressed))
			if err != nil {
				t.Fatalf("failed to create decoder: %v", err)
			}
			decompressed, err := io.ReadAll(dec)
			if err != nil {
				t.Fatalf("decompress failed: %v", err)
			}
			if !bytes.Equal(decompressed, encoderTestData) {
				t.Fatalf("round trip mismatch: got %q", decompressed)
			}
		})
	}
}

func TestEncodersDeterministic(t *testing.T) {
	for algo := range encoders {
		t.Run(string(algo), func(t *testing.T) {
			enc := testEncoder(t, algo)

			first, err := enc(encoderTestData)
			if err != nil {
				t.Fatalf("first compress failed: %v", err)
			}
			second, err := enc(encoderTestData)
			if err != nil {
				t.Fatalf("second compress failed: %v", err)
			}
			if !bytes.Equal(first, second) {
				t.Fatal("repeated compression produced different output")
			}
		})
	}
}

func TestEncodersRejectEmptyInput(t *testing.T) {
	for algo := range encoders {
		t.Run(string(algo), func(t *testing.T) {
			enc := testEncoder(t, algo)

			out, err := enc(nil)
			if !errors.Is(err, errEmptyInput) {
				t.Fatalf("expected errEmptyInput, got %v", err)
			}
			if out != nil {
				t.Fatal("expected no output on failure")
			}
		})
	}
}

func TestZstdEncoderConcurrentUse(t *testing.T) {
	enc := testEncoder(t, AlgorithmZstd)
	want, err := enc(encoderTestData)
	if err != nil {
		t.Fatalf("compress failed: %v", err)
	}

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			for j := 0; j < 50; j++ {
				got, err := enc(encoderTestData)
				if err != nil {
					done <- err
					return
				}
				if !bytes.Equal(got, want) {
					done <- errors.New("concurrent compression diverged")
					return
				}
			}
			done <- nil
		}()
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Fatal(err)
		}
	}
}
