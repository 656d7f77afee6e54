package retriever

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/netopslabs/netdocs/internal/vectorstore"
)

// docFileExtensions are the file types indexed from a local docs directory.
var docFileExtensions = map[string]bool{
	".txt": true,
	".md":  true,
	".rst": true,
}

// fetchURL downloads one remote documentation page and chunks it.
func (r *Retriever) fetchURL(ctx context.Context, url string) ([]vectorstore.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", r.cfg.UserAgent)
	req.Header.Set("Accept", "text/plain, text/html")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	return r.chunkDocument(string(body), vectorstore.Metadata{Source: url}), nil
}

// loadDirectory walks dir and chunks every documentation file found.
// Unreadable files are skipped with a warning.
func (r *Retriever) loadDirectory(dir string) ([]vectorstore.Document, error) {
	var docs []vectorstore.Document

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !docFileExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			r.log.Warn("retriever: failed to read documentation file",
				slog.String("path", path), slog.Any("error", err))
			return nil
		}

		docs = append(docs, r.chunkDocument(string(content), vectorstore.Metadata{
			Title:  d.Name(),
			Source: path,
		})...)
		return nil
	})
	if err != nil {
		return docs, fmt.Errorf("walk %s: %w", dir, err)
	}
	return docs, nil
}
