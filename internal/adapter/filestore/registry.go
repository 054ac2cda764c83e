package filestore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"everpedia/internal/domain"
)

// ValidPageRegistry is the persistent allow-list of slugs that passed topic
// validation (or were produced by a trusted generation). The full set lives
// in one JSON array file, loaded once at startup and rewritten in full on
// every mutation. Membership only grows; there is no removal operation.
type ValidPageRegistry struct {
	path   string
	logger *slog.Logger

	mu    sync.RWMutex
	slugs map[string]struct{}
	order []string
}

// NewValidPageRegistry loads the registry file. A missing file starts an
// empty registry; a corrupt file is logged and also starts empty.
func NewValidPageRegistry(path string, logger *slog.Logger) (*ValidPageRegistry, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create registry dir: %w", err)
	}
	r := &ValidPageRegistry{
		path:   path,
		logger: logger,
		slugs:  make(map[string]struct{}),
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read registry file: %w", err)
		}
		return r, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		logger.Warn("corrupt registry file, starting empty", "path", path, "error", err)
		return r, nil
	}
	for _, slug := range list {
		if _, ok := r.slugs[slug]; ok {
			continue
		}
		r.slugs[slug] = struct{}{}
		r.order = append(r.order, slug)
	}
	return r, nil
}

// IsValid reports whether the slug is in the allow-list.
func (r *ValidPageRegistry) IsValid(slug string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.slugs[slug]
	return ok
}

// Add converts the title to its canonical slug, inserts it if absent, and
// persists the full set. The mutation returns only after persistence.
func (r *ValidPageRegistry) Add(title string) error {
	return r.AddAll([]string{title})
}

// AddAll is the batched insert; the file is rewritten once if any insertion
// occurred.
func (r *ValidPageRegistry) AddAll(titles []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	changed := false
	for _, title := range titles {
		slug := domain.TitleToSlug(title)
		if slug == "" {
			continue
		}
		if _, ok := r.slugs[slug]; ok {
			continue
		}
		r.slugs[slug] = struct{}{}
		r.order = append(r.order, slug)
		changed = true
	}
	if !changed {
		return nil
	}
	return r.persistLocked()
}

// Len returns the number of registered slugs.
func (r *ValidPageRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (r *ValidPageRegistry) persistLocked() error {
	raw, err := json.MarshalIndent(r.order, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode registry: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".registry-*")
	if err != nil {
		return fmt.Errorf("failed to create registry temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write registry temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close registry temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace registry file: %w", err)
	}
	return nil
}

var _ domain.PageRegistry = (*ValidPageRegistry)(nil)
