package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    DocumentCategory
		wantErr bool
	}{
		{"maintenance", CategoryMaintenance, false},
		{"Spare Parts", CategorySpareParts, false},
		{"  OPERATIONS  ", CategoryOperations, false},
		{"spare_parts", CategorySpareParts, false},
		{"manuals", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseCategory(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseRating(t *testing.T) {
	_, err := ParseRating("positive")
	assert.NoError(t, err)
	_, err = ParseRating("negative")
	assert.NoError(t, err)
	_, err = ParseRating("meh")
	assert.Error(t, err)
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"uploaded", "parsing", "summarizing", "indexing", "ready", "failed"} {
		_, err := ParseStatus(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseStatus("done")
	assert.Error(t, err)
}

func TestDocumentPageIndexID(t *testing.T) {
	p := DocumentPage{DocumentID: "abc-123", Page: 7}
	assert.Equal(t, "abc-123_7", p.IndexID())
}

func TestSearchRequestValidate(t *testing.T) {
	valid := func() SearchRequest {
		return SearchRequest{Query: "oil filter", Page: 1, PageSize: 20}
	}

	t.Run("trims the query", func(t *testing.T) {
		req := valid()
		req.Query = "  oil filter  "
		require.NoError(t, req.Validate())
		assert.Equal(t, "oil filter", req.Query)
	})

	t.Run("rejects bad inputs", func(t *testing.T) {
		long := make([]byte, 501)
		for i := range long {
			long[i] = 'q'
		}

		bad := []func(*SearchRequest){
			func(r *SearchRequest) { r.Query = "   " },
			func(r *SearchRequest) { r.Query = string(long) },
			func(r *SearchRequest) { r.Page = 0 },
			func(r *SearchRequest) { r.PageSize = 0 },
			func(r *SearchRequest) { r.PageSize = 101 },
			func(r *SearchRequest) { r.Filters = &SearchFilters{Category: "junk"} },
		}
		for i, mutate := range bad {
			req := valid()
			mutate(&req)
			assert.Error(t, req.Validate(), "case %d", i)
		}
	})

	t.Run("rejects inverted date range", func(t *testing.T) {
		from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, -1, 0)
		req := valid()
		req.Filters = &SearchFilters{DateFrom: &from, DateTo: &to}
		assert.Error(t, req.Validate())
	})

	t.Run("accepts equal dates", func(t *testing.T) {
		d := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		req := valid()
		req.Filters = &SearchFilters{DateFrom: &d, DateTo: &d}
		assert.NoError(t, req.Validate())
	})
}
