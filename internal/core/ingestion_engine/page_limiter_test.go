package ingestion_engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeLimiter(maxPages, pageCount int, trimmed *string) *PageLimiter {
	l := NewPageLimiter(maxPages)
	l.countPages = func(path string) (int, error) {
		return pageCount, nil
	}
	l.trimPages = func(in, out string, max int) error {
		if trimmed != nil {
			*trimmed = out
		}
		return os.WriteFile(out, []byte("trimmed"), 0o644)
	}
	return l
}

func TestPageLimiterWithinLimit(t *testing.T) {
	l := fakeLimiter(50, 12, nil)

	path, pages, truncated, err := l.Limit("/tmp/manual.pdf")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/manual.pdf", path)
	assert.Equal(t, 12, pages)
	assert.False(t, truncated)
}

func TestPageLimiterTruncatesOversized(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "manual.pdf")
	require.NoError(t, os.WriteFile(src, []byte("original"), 0o644))

	var trimmedPath string
	l := fakeLimiter(50, 80, &trimmedPath)

	path, pages, truncated, err := l.Limit(src)
	require.NoError(t, err)
	assert.True(t, truncated)
	assert.Equal(t, 80, pages)
	assert.NotEqual(t, src, path)
	assert.Equal(t, filepath.Join(dir, "manual_limited.pdf"), path)
	assert.Equal(t, path, trimmedPath)
}

func TestPageLimiterCleanup(t *testing.T) {
	dir := t.TempDir()

	original := filepath.Join(dir, "manual.pdf")
	limited := filepath.Join(dir, "manual_limited.pdf")
	require.NoError(t, os.WriteFile(original, []byte("original"), 0o644))
	require.NoError(t, os.WriteFile(limited, []byte("trimmed"), 0o644))

	l := NewPageLimiter(50)

	// Only limited artifacts are ever removed.
	require.NoError(t, l.Cleanup(original))
	_, err := os.Stat(original)
	assert.NoError(t, err)

	require.NoError(t, l.Cleanup(limited))
	_, err = os.Stat(limited)
	assert.True(t, os.IsNotExist(err))

	// Cleaning up an already-removed artifact is not an error.
	assert.NoError(t, l.Cleanup(limited))
}
