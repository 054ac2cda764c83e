package filestore_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"everpedia/internal/adapter/filestore"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestDiskCache_TextRoundTrip(t *testing.T) {
	cache, err := filestore.NewDiskCache(t.TempDir(), testLogger())
	require.NoError(t, err)

	require.NoError(t, cache.Set("Quantum_Computing", "<html>page</html>"))

	content, ok := cache.Get("Quantum_Computing")
	assert.True(t, ok)
	assert.Equal(t, "<html>page</html>", content)
}

func TestDiskCache_MissIsNotAnError(t *testing.T) {
	cache, err := filestore.NewDiskCache(t.TempDir(), testLogger())
	require.NoError(t, err)

	content, ok := cache.Get("never_written")
	assert.False(t, ok)
	assert.Empty(t, content)

	data, meta, ok := cache.GetBinary("never_written.webp")
	assert.False(t, ok)
	assert.Nil(t, data)
	assert.Nil(t, meta)
}

func TestDiskCache_TTLCheckedOnRead(t *testing.T) {
	cache, err := filestore.NewDiskCache(t.TempDir(), testLogger())
	require.NoError(t, err)

	require.NoError(t, cache.Set("Roman_Empire", "body"))

	assert.False(t, cache.IsCached("Roman_Empire", 0, false), "zero max age must report not cached")
	assert.True(t, cache.IsCached("Roman_Empire", 24*time.Hour, false))
	assert.False(t, cache.IsCached("missing", 24*time.Hour, false))
}

func TestDiskCache_CorruptEntryTreatedAsMiss(t *testing.T) {
	dir := t.TempDir()
	cache, err := filestore.NewDiskCache(dir, testLogger())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Broken.json"), []byte("{not json"), 0o644))

	content, ok := cache.Get("Broken")
	assert.False(t, ok)
	assert.Empty(t, content)
}

func TestDiskCache_BinaryWithSidecar(t *testing.T) {
	cache, err := filestore.NewDiskCache(t.TempDir(), testLogger())
	require.NoError(t, err)

	payload := []byte{0x52, 0x49, 0x46, 0x46}
	meta := map[string]string{"filename": "Eiffel_Tower.webp", "format": "webp"}
	require.NoError(t, cache.SetBinary("Eiffel_Tower.webp", payload, meta))

	data, gotMeta, ok := cache.GetBinary("Eiffel_Tower.webp")
	require.True(t, ok)
	assert.Equal(t, payload, data)
	assert.Equal(t, "webp", gotMeta["format"])
	assert.Equal(t, "Eiffel_Tower.webp", gotMeta["filename"])
}

func TestDiskCache_MissingSidecarYieldsEmptyMetadata(t *testing.T) {
	dir := t.TempDir()
	cache, err := filestore.NewDiskCache(dir, testLogger())
	require.NoError(t, err)

	// Raw binary dropped in without its sidecar, e.g. an out-of-process edit.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Louvre.webp"), []byte{1, 2, 3}, 0o644))

	data, meta, ok := cache.GetBinary("Louvre.webp")
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, data)
	assert.NotNil(t, meta)
	assert.Empty(t, meta)
}

func TestDiskCache_Stats(t *testing.T) {
	cache, err := filestore.NewDiskCache(t.TempDir(), testLogger())
	require.NoError(t, err)

	require.NoError(t, cache.Set("Alpha", "one"))
	require.NoError(t, cache.Set("Beta", "two"))
	require.NoError(t, cache.SetBinary("Gamma.webp", []byte{9, 9}, nil))

	stats, err := cache.Stats()
	require.NoError(t, err)
	// Two text entries, one binary entry, one sidecar.
	assert.Equal(t, 4, stats.FileCount)
	assert.Equal(t, 2, stats.TextFiles)
	assert.Equal(t, 1, stats.BinaryFiles)
	assert.Greater(t, stats.TotalSizeBytes, int64(0))
}

func TestDiskCache_ClearExpired(t *testing.T) {
	dir := t.TempDir()
	cache, err := filestore.NewDiskCache(dir, testLogger())
	require.NoError(t, err)

	require.NoError(t, cache.Set("Old", "stale"))
	require.NoError(t, cache.Set("Fresh", "current"))

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "Old.json"), past, past))

	removed, err := cache.ClearExpired(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, ok := cache.Get("Old")
	assert.False(t, ok)
	_, ok = cache.Get("Fresh")
	assert.True(t, ok)
}

func TestDiskCache_OverwriteReplacesEntry(t *testing.T) {
	cache, err := filestore.NewDiskCache(t.TempDir(), testLogger())
	require.NoError(t, err)

	require.NoError(t, cache.Set("Topic", "first"))
	require.NoError(t, cache.Set("Topic", "second"))

	content, ok := cache.Get("Topic")
	require.True(t, ok)
	assert.Equal(t, "second", content)
}
