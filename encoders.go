package staticzip

import (
	"bytes"
	"errors"

	"github.com/andybalholm/brotli"
	"github.com/foobaz/go-zopfli/zopfli"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// encodeFunc compresses src in one shot. It either returns the
// complete compressed buffer or an error with no output; callers
// never observe partial results.
type encodeFunc func(src []byte) ([]byte, error)

// encoderFactory builds an encodeFunc bound to the configured
// quality parameters. Factories run once at orchestrator creation,
// so per-call work is limited to the compression itself.
type encoderFactory func(cfg *Config) (encodeFunc, error)

// encoders is the registry of compiled-in algorithms. Presence in
// this map is what Available reports; configuration validation
// rejects preference entries that are missing here.
var encoders = map[Algorithm]encoderFactory{
	AlgorithmGzip:    newGzipEncoder,
	AlgorithmZopfli:  newZopfliEncoder,
	AlgorithmBrotli:  newBrotliEncoder,
	AlgorithmDeflate: newDeflateEncoder,
	AlgorithmZstd:    newZstdEncoder,
	AlgorithmLZ4:     newLZ4Encoder,
	AlgorithmSnappy:  newSnappyEncoder,
}

// errEmptyInput is returned by every encoder for zero-length source
// bytes. There is nothing useful to cache for an empty asset and the
// orchestrator treats this as a recoverable encode failure.
var errEmptyInput = errors.New("empty input")

func newGzipEncoder(cfg *Config) (encodeFunc, error) {
	level := cfg.ZlibLevel
	return func(src []byte) ([]byte, error) {
		if len(src) == 0 {
			return nil, errEmptyInput
		}
		var buf bytes.Buffer
		w, err := gzip.NewWriterLevel(&buf, level)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(src); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}, nil
}

// newZopfliEncoder produces gzip-framed output at much higher effort
// than the zlib family. Iterations come from configuration; the
// result is served with the gzip content coding.
func newZopfliEncoder(cfg *Config) (encodeFunc, error) {
	opts := zopfli.DefaultOptions()
	opts.NumIterations = cfg.ZopfliIterations
	return func(src []byte) ([]byte, error) {
		if len(src) == 0 {
			return nil, errEmptyInput
		}
		var buf bytes.Buffer
		if err := zopfli.GzipCompress(&opts, src, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}, nil
}

func newBrotliEncoder(cfg *Config) (encodeFunc, error) {
	quality := cfg.BrotliQuality
	return func(src []byte) ([]byte, error) {
		if len(src) == 0 {
			return nil, errEmptyInput
		}
		var buf bytes.Buffer
		w := brotli.NewWriterLevel(&buf, quality)
		if _, err := w.Write(src); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}, nil
}

// newDeflateEncoder emits a raw DEFLATE stream, which is what the
// "deflate" content coding means in practice for the clients that
// still request it.
func newDeflateEncoder(cfg *Config) (encodeFunc, error) {
	level := cfg.ZlibLevel
	return func(src []byte) ([]byte, error) {
		if len(src) == 0 {
			return nil, errEmptyInput
		}
		var buf bytes.Buffer
		w, err := flate.NewWriter(&buf, level)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(src); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}, nil
}

// newZstdEncoder builds one persistent zstd encoder per orchestrator
// and reuses it for every compression. zstd.Encoder is safe for
// concurrent use through EncodeAll, so concurrent requests share it
// without extra locking.
func newZstdEncoder(cfg *Config) (encodeFunc, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(cfg.ZstdLevel)),
	)
	if err != nil {
		return nil, err
	}
	return func(src []byte) ([]byte, error) {
		if len(src) == 0 {
			return nil, errEmptyInput
		}
		return enc.EncodeAll(src, nil), nil
	}, nil
}

func newLZ4Encoder(cfg *Config) (encodeFunc, error) {
	level := lz4CompressionLevel(cfg.LZ4Level)
	return func(src []byte) ([]byte, error) {
		if len(src) == 0 {
			return nil, errEmptyInput
		}
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if err := w.Apply(lz4.CompressionLevelOption(level)); err != nil {
			return nil, err
		}
		if _, err := w.Write(src); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}, nil
}

// newSnappyEncoder writes the framed snappy format so artifacts are
// self-contained streams rather than bare blocks.
func newSnappyEncoder(cfg *Config) (encodeFunc, error) {
	return func(src []byte) ([]byte, error) {
		if len(src) == 0 {
			return nil, errEmptyInput
		}
		var buf bytes.Buffer
		w := snappy.NewBufferedWriter(&buf)
		if _, err := w.Write(src); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}, nil
}

// lz4CompressionLevel maps the 0-9 configuration range onto the lz4
// library's level constants. 0 selects the fast (non-HC) path.
func lz4CompressionLevel(level int) lz4.CompressionLevel {
	switch level {
	case 1:
		return lz4.Level1
	case 2:
		return lz4.Level2
	case 3:
		return lz4.Level3
	case 4:
		return lz4.Level4
	case 5:
		return lz4.Level5
	case 6:
		return lz4.Level6
	case 7:
		return lz4.Level7
	case 8:
		return lz4.Level8
	case 9:
		return lz4.Level9
	default:
		return lz4.Fast
	}
}
