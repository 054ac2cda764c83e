package filestore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"everpedia/internal/domain"
)

const sidecarSuffix = ".meta.json"

// textEntry is the JSON wrapper for text cache entries.
type textEntry struct {
	Key       string    `json:"key"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// binaryMeta is the JSON sidecar written next to a binary entry.
type binaryMeta struct {
	Key       string            `json:"key"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
}

// DiskCache stores one file per key under a single directory. Text entries
// are JSON-wrapped; binary entries are raw bytes plus a metadata sidecar.
// Expiry is checked on read only; expired files stay on disk until
// overwritten or swept by ClearExpired. The read path never returns an
// error: corrupt or unreadable entries are logged and treated as misses.
type DiskCache struct {
	dir    string
	logger *slog.Logger
}

// NewDiskCache creates the cache directory if needed.
func NewDiskCache(dir string, logger *slog.Logger) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir %s: %w", dir, err)
	}
	return &DiskCache{dir: dir, logger: logger}, nil
}

// IsCached reports whether an entry exists and its modification time is
// within maxAge. A non-positive maxAge always reports false.
func (c *DiskCache) IsCached(key string, maxAge time.Duration, binary bool) bool {
	info, err := os.Stat(c.path(key, binary))
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) < maxAge
}

// Get returns the decoded text content for key, or false on miss/corruption.
func (c *DiskCache) Get(key string) (string, bool) {
	raw, err := os.ReadFile(c.path(key, false))
	if err != nil {
		return "", false
	}
	var entry textEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.Warn("corrupt cache entry treated as miss", "key", key, "error", err)
		return "", false
	}
	return entry.Content, true
}

// GetBinary returns the raw bytes and sidecar metadata for key. A missing
// sidecar yields empty metadata, not an error.
func (c *DiskCache) GetBinary(key string) ([]byte, map[string]string, bool) {
	data, err := os.ReadFile(c.path(key, true))
	if err != nil {
		return nil, nil, false
	}
	metadata := map[string]string{}
	raw, err := os.ReadFile(c.path(key, true) + sidecarSuffix)
	if err == nil {
		var meta binaryMeta
		if err := json.Unmarshal(raw, &meta); err != nil {
			c.logger.Warn("corrupt cache sidecar ignored", "key", key, "error", err)
		} else if meta.Metadata != nil {
			metadata = meta.Metadata
		}
	}
	return data, metadata, true
}

// Set writes a text entry, overwriting any prior entry unconditionally.
func (c *DiskCache) Set(key, content string) error {
	entry := textEntry{Key: key, Content: content, CreatedAt: time.Now()}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}
	return c.writeAtomic(c.path(key, false), raw)
}

// SetBinary writes raw bytes and their metadata sidecar together.
func (c *DiskCache) SetBinary(key string, data []byte, metadata map[string]string) error {
	if metadata == nil {
		metadata = map[string]string{}
	}
	meta := binaryMeta{Key: key, Metadata: metadata, CreatedAt: time.Now()}
	rawMeta, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode cache sidecar %s: %w", key, err)
	}
	if err := c.writeAtomic(c.path(key, true), data); err != nil {
		return err
	}
	return c.writeAtomic(c.path(key, true)+sidecarSuffix, rawMeta)
}

// Stats scans the whole directory. O(entries), acceptable at this scale.
func (c *DiskCache) Stats() (domain.CacheStats, error) {
	var stats domain.CacheStats
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return stats, fmt.Errorf("failed to scan cache dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		stats.FileCount++
		stats.TotalSizeBytes += info.Size()
		name := e.Name()
		switch {
		case strings.HasSuffix(name, sidecarSuffix):
			// Sidecars count toward file totals only.
		case strings.HasSuffix(name, ".json"):
			stats.TextFiles++
		default:
			stats.BinaryFiles++
		}
	}
	return stats, nil
}

// ClearExpired removes entries whose modification time is older than maxAge,
// sidecars included. Returns the number of files removed.
func (c *DiskCache) ClearExpired(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to scan cache dir: %w", err)
	}
	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			c.logger.Warn("failed to remove expired cache file", "file", e.Name(), "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

func (c *DiskCache) path(key string, binary bool) string {
	name := sanitizeKey(key)
	if !binary {
		name += ".json"
	}
	return filepath.Join(c.dir, name)
}

// sanitizeKey maps a cache key to a safe flat filename. Slugs already avoid
// whitespace, but titles can carry arbitrary punctuation.
func sanitizeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func (c *DiskCache) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}

var _ domain.PageCache = (*DiskCache)(nil)
