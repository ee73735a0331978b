// Package corpus loads the source text an index is built from. A local file
// always wins; when only a URL is configured the text is downloaded once and
// cached on disk so rebuilds work offline.
package corpus

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/folioqa/folio/internal/appconfig"
	"github.com/folioqa/folio/internal/logging"
)

// Load returns the corpus text for the given configuration. It reads
// cfg.CorpusPath when the file exists, otherwise downloads cfg.CorpusURL and
// caches the body at that path before returning it.
func Load(ctx context.Context, cfg *appconfig.Config) (string, error) {
	path := cachePath(cfg)

	if data, err := os.ReadFile(path); err == nil {
		logging.LogEvent("Corpus loaded from %s (%d bytes)", path, len(data))
		return string(data), nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("reading corpus file %s: %w", path, err)
	}

	if strings.TrimSpace(cfg.CorpusURL) == "" {
		return "", fmt.Errorf("corpus file %s not found and no corpusUrl configured", path)
	}
	return download(ctx, cfg, path)
}

// cachePath resolves where the corpus text lives on disk. An explicit
// corpusPath is used as-is; otherwise downloads land next to the vector
// database under the data directory.
func cachePath(cfg *appconfig.Config) string {
	if p := strings.TrimSpace(cfg.CorpusPath); p != "" {
		return p
	}
	return filepath.Join(cfg.DataDir, cfg.Collection+".txt")
}

func download(ctx context.Context, cfg *appconfig.Config, path string) (string, error) {
	logging.LogEvent("Downloading corpus from %s", cfg.CorpusURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.CorpusURL, nil)
	if err != nil {
		return "", fmt.Errorf("building corpus request: %w", err)
	}
	client := &http.Client{Timeout: cfg.RequestTimeout()}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading corpus: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("corpus download failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading corpus download: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return "", fmt.Errorf("corpus download from %s was empty", cfg.CorpusURL)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating corpus directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("caching corpus to %s: %w", path, err)
	}
	logging.LogEvent("Corpus cached at %s (%d bytes)", path, len(data))
	return string(data), nil
}
