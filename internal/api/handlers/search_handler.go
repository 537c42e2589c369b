package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/velasqa/manualsearch/internal/core/search"
	"github.com/velasqa/manualsearch/internal/models"
)

type SearchHandler struct {
	service *search.Service
}

func NewSearchHandler(service *search.Service) *SearchHandler {
	return &SearchHandler{service: service}
}

// searchRequestBody mirrors models.SearchRequest with pointer toggles so an
// omitted field is distinguishable from an explicit false.
type searchRequestBody struct {
	Query             string                `json:"query"`
	Filters           *models.SearchFilters `json:"filters"`
	Page              int                   `json:"page"`
	PageSize          int                   `json:"page_size"`
	EnableFuzzy       *bool                 `json:"enable_fuzzy"`
	IncludeHighlights *bool                 `json:"include_highlights"`
	IncludeContent    *bool                 `json:"include_content"`
}

func (b *searchRequestBody) toRequest() *models.SearchRequest {
	req := &models.SearchRequest{
		Query:             b.Query,
		Filters:           b.Filters,
		Page:              b.Page,
		PageSize:          b.PageSize,
		EnableFuzzy:       true,
		IncludeHighlights: true,
		IncludeContent:    false,
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 10
	}
	if b.EnableFuzzy != nil {
		req.EnableFuzzy = *b.EnableFuzzy
	}
	if b.IncludeHighlights != nil {
		req.IncludeHighlights = *b.IncludeHighlights
	}
	if b.IncludeContent != nil {
		req.IncludeContent = *b.IncludeContent
	}
	return req
}

// Search runs a ranked full-text query across all indexed manual pages.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var body searchRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	resp, err := h.service.Search(r.Context(), body.toRequest())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
