package models

import (
	"fmt"
	"strings"
	"time"
)

// SearchFilters narrow a search to exact-match criteria.
type SearchFilters struct {
	Category     string     `json:"category,omitempty"`
	MachineModel string     `json:"machine_model,omitempty"`
	DateFrom     *time.Time `json:"date_from,omitempty"`
	DateTo       *time.Time `json:"date_to,omitempty"`
	PartNumbers  []string   `json:"part_numbers,omitempty"`
}

// SearchRequest carries the query plus pagination and result shaping toggles.
// EnableFuzzy and IncludeHighlights default to true when the request body
// omits them; the handler applies the defaults before validation.
type SearchRequest struct {
	Query             string         `json:"query"`
	Filters           *SearchFilters `json:"filters,omitempty"`
	Page              int            `json:"page"`
	PageSize          int            `json:"page_size"`
	EnableFuzzy       bool           `json:"enable_fuzzy"`
	IncludeHighlights bool           `json:"include_highlights"`
	IncludeContent    bool           `json:"include_content"`
}

// Validate rejects malformed requests before any index call.
func (r *SearchRequest) Validate() error {
	r.Query = strings.TrimSpace(r.Query)
	if r.Query == "" {
		return fmt.Errorf("query cannot be empty or whitespace")
	}
	if len(r.Query) > 500 {
		return fmt.Errorf("query exceeds 500 characters")
	}
	if r.Page < 1 {
		return fmt.Errorf("page must be >= 1")
	}
	if r.PageSize < 1 || r.PageSize > 100 {
		return fmt.Errorf("page_size must be between 1 and 100")
	}
	if r.Filters != nil {
		if r.Filters.Category != "" {
			if _, err := ParseCategory(r.Filters.Category); err != nil {
				return err
			}
		}
		if r.Filters.DateFrom != nil && r.Filters.DateTo != nil && r.Filters.DateTo.Before(*r.Filters.DateFrom) {
			return fmt.Errorf("date_to must not be before date_from")
		}
	}
	return nil
}

// SearchResult is one boosted hit.
type SearchResult struct {
	DocumentID         string     `json:"document_id"`
	Filename           string     `json:"filename"`
	Page               int        `json:"page"`
	Category           string     `json:"category"`
	Score              float64    `json:"score"`
	Snippet            string     `json:"snippet,omitempty"`
	Content            string     `json:"content,omitempty"`
	HighlightedContent string     `json:"highlighted_content,omitempty"`
	Summary            string     `json:"summary,omitempty"`
	MachineModel       string     `json:"machine_model,omitempty"`
	PartNumbers        []string   `json:"part_numbers,omitempty"`
	UploadDate         *time.Time `json:"upload_date,omitempty"`
}

// SearchResponse is the ranked, paginated answer.
type SearchResponse struct {
	Query      string         `json:"query"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
	TookMs     int            `json:"took"`
	Results    []SearchResult `json:"results"`
}
