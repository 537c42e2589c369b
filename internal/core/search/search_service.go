package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/velasqa/manualsearch/internal/core"
	"github.com/velasqa/manualsearch/internal/core/index"
	"github.com/velasqa/manualsearch/internal/models"
)

// Service executes relevance queries and re-ranks hits by feedback boost.
type Service struct {
	index  core.IndexClient
	boosts *BoostCache
	logger *slog.Logger
}

func NewService(idx core.IndexClient, boosts *BoostCache, logger *slog.Logger) *Service {
	return &Service{index: idx, boosts: boosts, logger: logger}
}

// Search validates the request, runs the weighted query, multiplies every
// hit's base score by its feedback boost and re-sorts the page of results.
// The index's own ordering is not trusted once boosting applies, since boosts
// are unknown to the index at query time.
func (s *Service) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrValidation, err)
	}

	body := index.BuildSearchQuery(req)
	from := (req.Page - 1) * req.PageSize

	raw, err := s.index.Search(ctx, body, from, req.PageSize)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	results := make([]models.SearchResult, 0, len(raw.Hits))
	for _, hit := range raw.Hits {
		boost, err := s.boosts.Boost(ctx, hit.Source.DocumentID, hit.Source.Page)
		if err != nil {
			// The search must still succeed without the feedback store.
			s.logger.Warn("boost lookup failed, using neutral boost",
				"document_id", hit.Source.DocumentID, "page", hit.Source.Page, "error", err)
			boost = 1.0
		}
		results = append(results, s.buildResult(hit, boost, req))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	totalPages := 0
	if raw.Total > 0 {
		totalPages = (raw.Total + req.PageSize - 1) / req.PageSize
	}

	return &models.SearchResponse{
		Query:      req.Query,
		Total:      raw.Total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: totalPages,
		TookMs:     raw.TookMs,
		Results:    results,
	}, nil
}

func (s *Service) buildResult(hit core.IndexHit, boost float64, req *models.SearchRequest) models.SearchResult {
	src := hit.Source

	result := models.SearchResult{
		DocumentID:   src.DocumentID,
		Filename:     src.Filename,
		Page:         src.Page,
		Category:     src.Category,
		Score:        hit.Score * boost,
		Summary:      src.Summary,
		MachineModel: src.MachineModel,
		PartNumbers:  src.PartNumbers,
	}
	if !src.UploadDate.IsZero() {
		d := src.UploadDate
		result.UploadDate = &d
	}
	if req.IncludeContent {
		result.Content = src.Content
	}

	if req.IncludeHighlights && hit.Highlights != nil {
		// Prefer the summary fragment as the snippet; the content highlight
		// is either the fallback snippet or the full marked-up page.
		if frags := hit.Highlights["summary"]; len(frags) > 0 {
			result.Snippet = frags[0]
		}
		if frags := hit.Highlights["content"]; len(frags) > 0 {
			if req.IncludeContent {
				result.HighlightedContent = frags[0]
			} else if result.Snippet == "" {
				result.Snippet = frags[0]
			}
		}
	}

	return result
}

// InvalidateBoost exposes cache invalidation to the feedback path.
func (s *Service) InvalidateBoost(documentID string, page int) {
	s.boosts.Invalidate(documentID, page)
}

// BoostFor reports the current boost, used by the feedback stats endpoint.
func (s *Service) BoostFor(ctx context.Context, documentID string, page int) (float64, error) {
	return s.boosts.Boost(ctx, documentID, page)
}
