package ingestion_engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/velasqa/manualsearch/internal/core"
)

// limitedSuffix marks truncated artifacts so cleanup never touches a
// caller-supplied original.
const limitedSuffix = "_limited"

// PageLimiter enforces the parse service's maximum page count by producing a
// truncated copy of oversized PDFs. The count and trim functions are fields
// so tests can substitute them.
type PageLimiter struct {
	MaxPages int

	countPages func(path string) (int, error)
	trimPages  func(in, out string, maxPages int) error
}

func NewPageLimiter(maxPages int) *PageLimiter {
	return &PageLimiter{
		MaxPages: maxPages,
		countPages: func(path string) (int, error) {
			return api.PageCountFile(path)
		},
		trimPages: func(in, out string, maxPages int) error {
			return api.TrimFile(in, out, []string{fmt.Sprintf("1-%d", maxPages)}, nil)
		},
	}
}

// Limit returns the path to process, the original page count and whether a
// truncated artifact was created. Within the limit, the original path comes
// back unchanged.
func (l *PageLimiter) Limit(path string) (string, int, bool, error) {
	pageCount, err := l.countPages(path)
	if err != nil {
		return "", 0, false, fmt.Errorf("read pdf %s: %w", filepath.Base(path), err)
	}

	if pageCount <= l.MaxPages {
		return path, pageCount, false, nil
	}

	ext := filepath.Ext(path)
	limitedPath := strings.TrimSuffix(path, ext) + limitedSuffix + ext

	if err := l.trimPages(path, limitedPath, l.MaxPages); err != nil {
		return "", 0, false, fmt.Errorf("create limited pdf for %s: %w", filepath.Base(path), err)
	}

	return limitedPath, pageCount, true, nil
}

// Cleanup removes a truncated artifact. Only files carrying the limited
// suffix are ever deleted; anything else is left alone.
func (l *PageLimiter) Cleanup(path string) error {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if !strings.Contains(base, limitedSuffix) {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ValidateSource fails with a validation error when the source cannot be
// read; the caller must not proceed to parsing.
func (l *PageLimiter) ValidateSource(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: source pdf not readable: %s", core.ErrValidation, path)
	}
	return nil
}
