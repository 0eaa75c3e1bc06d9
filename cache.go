package staticzip

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
)

// cache names and stores compressed artifacts. Artifact identity is
// derived entirely from the original's absolute path and the chosen
// algorithm, so concurrent writers for the same asset converge on
// the same final path and the last publish wins.
type cache struct {
	dir string
}

// artifactPath computes the cache file location for an original.
// Deterministic and pure: the BLAKE3 digest of the absolute path,
// tagged with the algorithm's extension, flat under the cache dir.
func (c *cache) artifactPath(origAbsPath string, algo Algorithm) string {
	sum := blake3.Sum256([]byte(origAbsPath))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+GetExtension(algo))
}

// isFresh reports whether path exists and is at least as new as the
// original. Equal timestamps count as fresh: the artifact is always
// written after the original's mtime was read, so equality can only
// mean timestamp truncation, never staleness. The zero check biases
// the other way — a missing or unreadable artifact is never fresh.
func (c *cache) isFresh(path string, origModTime time.Time) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.ModTime().Before(origModTime)
}

// publish atomically materializes an artifact: write to a uniquely
// named temp file in the same directory, then rename over the final
// path. Readers never observe a partial artifact, and racing writers
// are harmless because both publish identical bytes.
func (c *cache) publish(path string, data []byte) error {
	tmp, err := os.CreateTemp(c.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	published := false
	defer func() {
		if !published {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	published = true
	return nil
}
