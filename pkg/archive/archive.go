// Package archive retains generated catalog export files on the local
// filesystem so past snapshots stay available for download.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNotFound is returned when a named export does not exist in the archive.
var ErrNotFound = fmt.Errorf("export file not found")

// Entry describes one archived export file
type Entry struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Archive stores export files under a single directory
type Archive struct {
	dir string
}

// New creates the archive directory if needed
func New(dir string) (*Archive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &Archive{dir: dir}, nil
}

// Save writes an export file into the archive and returns its stored name.
// Existing files of the same name are overwritten, so a re-run of the same
// day's export replaces the earlier snapshot.
func (a *Archive) Save(name string, data []byte) (string, error) {
	safe := sanitizeFilename(name)
	if safe == "" {
		return "", fmt.Errorf("invalid export name %q", name)
	}

	path := filepath.Join(a.dir, safe)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return safe, nil
}

// Open returns a reader for an archived export
func (a *Archive) Open(name string) (io.ReadCloser, error) {
	safe := sanitizeFilename(name)
	if safe == "" {
		return nil, ErrNotFound
	}

	f, err := os.Open(filepath.Join(a.dir, safe))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open export file: %w", err)
	}
	return f, nil
}

// List returns archived exports, newest first
func (a *Archive) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name:      de.Name(),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// Prune deletes the oldest exports beyond keep and reports how many were
// removed. keep <= 0 disables pruning.
func (a *Archive) Prune(keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}

	entries, err := a.List()
	if err != nil {
		return 0, err
	}
	if len(entries) <= keep {
		return 0, nil
	}

	removed := 0
	for _, e := range entries[keep:] {
		if err := os.Remove(filepath.Join(a.dir, e.Name)); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("failed to prune %s: %w", e.Name, err)
		}
		removed++
	}
	return removed, nil
}

// sanitizeFilename strips path separators and other unsafe characters so a
// stored name can never escape the archive directory
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return strings.TrimSpace(replacer.Replace(name))
}
