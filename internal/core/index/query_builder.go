package index

import (
	"time"

	"github.com/velasqa/manualsearch/internal/models"
)

// Field weights for the multi-field relevance query. Part numbers outrank
// everything: a query that names a part should surface its page first. The
// relevance query goes through the analyzed subfield; the bare keyword field
// stays reserved for exact-match terms filters.
const (
	weightPartNumbers  = "part_numbers.analyzed^3"
	weightMachineModel = "machine_model^2.5"
	weightContent      = "content^2"
	weightSummary      = "summary^1.5"
	weightFilename     = "filename^1.2"
)

// BuildSearchQuery turns a validated search request into the query DSL body.
// Pagination is applied by the caller via from/size, not in the body.
func BuildSearchQuery(req *models.SearchRequest) map[string]any {
	multiMatch := map[string]any{
		"query": req.Query,
		"fields": []string{
			weightPartNumbers,
			weightMachineModel,
			weightContent,
			weightSummary,
			weightFilename,
		},
		"type":     "best_fields",
		"operator": "or",
	}
	if req.EnableFuzzy {
		multiMatch["fuzziness"] = "AUTO"
	}

	boolQuery := map[string]any{
		"must": []any{
			map[string]any{"multi_match": multiMatch},
		},
	}

	if req.Filters != nil {
		if filters := buildFilters(req.Filters); len(filters) > 0 {
			boolQuery["filter"] = filters
		}
	}

	body := map[string]any{
		"query": map[string]any{"bool": boolQuery},
		"sort": []any{
			"_score",
			map[string]any{"upload_date": map[string]any{"order": "desc"}},
		},
	}

	if req.IncludeHighlights {
		body["highlight"] = buildHighlight(req.IncludeContent)
	}

	return body
}

func buildFilters(f *models.SearchFilters) []any {
	var clauses []any

	if f.Category != "" {
		clauses = append(clauses, map[string]any{
			"term": map[string]any{"category": f.Category},
		})
	}

	if f.MachineModel != "" {
		clauses = append(clauses, map[string]any{
			"term": map[string]any{"machine_model": f.MachineModel},
		})
	}

	if f.DateFrom != nil || f.DateTo != nil {
		dateRange := map[string]any{}
		if f.DateFrom != nil {
			dateRange["gte"] = f.DateFrom.Format(time.RFC3339)
		}
		if f.DateTo != nil {
			dateRange["lte"] = f.DateTo.Format(time.RFC3339)
		}
		clauses = append(clauses, map[string]any{
			"range": map[string]any{"upload_date": dateRange},
		})
	}

	if len(f.PartNumbers) > 0 {
		clauses = append(clauses, map[string]any{
			"terms": map[string]any{"part_numbers": f.PartNumbers},
		})
	}

	return clauses
}

// buildHighlight always requests a short summary fragment. For content the
// two modes are exclusive: a single snippet, or the whole field with matches
// marked (number_of_fragments 0).
func buildHighlight(fullContent bool) map[string]any {
	contentField := map[string]any{
		"fragment_size":       150,
		"number_of_fragments": 1,
		"pre_tags":            []string{"<mark>"},
		"post_tags":           []string{"</mark>"},
	}
	if fullContent {
		contentField = map[string]any{
			"number_of_fragments": 0,
			"pre_tags":            []string{"<mark>"},
			"post_tags":           []string{"</mark>"},
		}
	}

	return map[string]any{
		"fields": map[string]any{
			"content": contentField,
			"summary": map[string]any{
				"fragment_size":       150,
				"number_of_fragments": 1,
				"pre_tags":            []string{"<mark>"},
				"post_tags":           []string{"</mark>"},
			},
		},
		"order": "score",
	}
}
