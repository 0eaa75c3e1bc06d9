package staticzip_test

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	"github.com/staticzip/staticzip"
)

func Example() {
	assets, _ := os.MkdirTemp("", "assets")
	defer os.RemoveAll(assets)
	cacheDir, _ := os.MkdirTemp("", "cache")
	defer os.RemoveAll(cacheDir)

	script := strings.Repeat("function greet() { return 'hello'; }\n", 20)
	os.WriteFile(filepath.Join(assets, "app.js"), []byte(script), 0o644)

	cfg := staticzip.DefaultConfig()
	cfg.Roots = []string{assets}
	cfg.CacheDir = cacheDir
	cfg.Preference = []staticzip.Algorithm{staticzip.AlgorithmGzip}
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	handler, err := staticzip.New(http.FileServer(http.Dir(assets)), cfg)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	req := httptest.NewRequest(http.MethodGet, "/app.js", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	fmt.Println("status:", w.Code)
	fmt.Println("encoding:", w.Header().Get("Content-Encoding"))
	fmt.Println("smaller:", w.Body.Len() < len(script))
	// Output:
	// status: 200
	// encoding: gzip
	// smaller: true
}
