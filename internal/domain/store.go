package domain

import "time"

// CacheStats summarizes the on-disk cache for operational visibility.
type CacheStats struct {
	FileCount      int   `json:"file_count"`
	TextFiles      int   `json:"text_files"`
	BinaryFiles    int   `json:"binary_files"`
	TotalSizeBytes int64 `json:"total_size_bytes"`
}

// PageCache is a key to content store with age-based expiry checked on read.
// It is best-effort, never authoritative: implementations log I/O failures
// and degrade to a miss instead of returning errors on the read path.
type PageCache interface {
	IsCached(key string, maxAge time.Duration, binary bool) bool
	Get(key string) (string, bool)
	GetBinary(key string) ([]byte, map[string]string, bool)
	Set(key, content string) error
	SetBinary(key string, data []byte, metadata map[string]string) error
	Stats() (CacheStats, error)
	ClearExpired(maxAge time.Duration) (int, error)
}

// PageRegistry is the persistent allow-list of slugs known to correspond to an
// approved topic. Membership only grows; there is no removal operation.
type PageRegistry interface {
	IsValid(slug string) bool
	Add(title string) error
	AddAll(titles []string) error
}

// PromptStore persists ImagePromptRecords across their two lifecycle states.
// MarkPending is a no-op for slugs that already have a record, so a re-render
// cannot demote a ready prompt back to generating.
type PromptStore interface {
	Get(slug string) (*ImagePromptRecord, bool)
	MarkPending(slug, articleTitle string) error
	MarkReady(slug, prompt string) error
}
