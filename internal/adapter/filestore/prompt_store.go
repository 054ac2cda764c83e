package filestore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"everpedia/internal/domain"
)

const promptKeyPrefix = "prompt_"

// PromptStore persists ImagePromptRecords through the text cache, one JSON
// entry per image slug. Records never expire: readiness is a state, not a
// freshness question, so reads go straight to Get without a TTL check.
type PromptStore struct {
	cache  domain.PageCache
	logger *slog.Logger
}

func NewPromptStore(cache domain.PageCache, logger *slog.Logger) *PromptStore {
	return &PromptStore{cache: cache, logger: logger}
}

// Get returns the record for slug, or false when none was ever registered.
func (s *PromptStore) Get(slug string) (*domain.ImagePromptRecord, bool) {
	raw, ok := s.cache.Get(promptKeyPrefix + slug)
	if !ok {
		return nil, false
	}
	var rec domain.ImagePromptRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		s.logger.Warn("corrupt prompt record treated as missing", "slug", slug, "error", err)
		return nil, false
	}
	return &rec, true
}

// MarkPending registers a generating-state record for slug. Existing records
// are left untouched so a re-render cannot demote a ready prompt.
func (s *PromptStore) MarkPending(slug, articleTitle string) error {
	if _, ok := s.Get(slug); ok {
		return nil
	}
	now := time.Now()
	return s.put(&domain.ImagePromptRecord{
		Slug:         slug,
		ArticleTitle: articleTitle,
		Ready:        false,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// MarkReady stores the generated prompt and flips the record to ready.
func (s *PromptStore) MarkReady(slug, prompt string) error {
	rec, ok := s.Get(slug)
	if !ok {
		now := time.Now()
		rec = &domain.ImagePromptRecord{Slug: slug, CreatedAt: now}
	}
	rec.Prompt = prompt
	rec.Ready = true
	rec.UpdatedAt = time.Now()
	return s.put(rec)
}

func (s *PromptStore) put(rec *domain.ImagePromptRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode prompt record %s: %w", rec.Slug, err)
	}
	return s.cache.Set(promptKeyPrefix+rec.Slug, string(raw))
}

var _ domain.PromptStore = (*PromptStore)(nil)
