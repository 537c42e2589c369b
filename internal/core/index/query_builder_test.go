package index

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velasqa/manualsearch/internal/models"
)

func baseRequest() *models.SearchRequest {
	return &models.SearchRequest{
		Query:             "hydraulic filter",
		Page:              1,
		PageSize:          10,
		EnableFuzzy:       true,
		IncludeHighlights: true,
	}
}

func mustMatch(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	boolQuery := body["query"].(map[string]any)["bool"].(map[string]any)
	must := boolQuery["must"].([]any)
	require.Len(t, must, 1)
	return must[0].(map[string]any)["multi_match"].(map[string]any)
}

func filterClauses(t *testing.T, body map[string]any) []any {
	t.Helper()
	boolQuery := body["query"].(map[string]any)["bool"].(map[string]any)
	clauses, _ := boolQuery["filter"].([]any)
	return clauses
}

func TestBuildSearchQueryFieldWeights(t *testing.T) {
	body := BuildSearchQuery(baseRequest())
	mm := mustMatch(t, body)

	assert.Equal(t, "hydraulic filter", mm["query"])
	assert.Equal(t, []string{
		"part_numbers.analyzed^3",
		"machine_model^2.5",
		"content^2",
		"summary^1.5",
		"filename^1.2",
	}, mm["fields"])
	assert.Equal(t, "best_fields", mm["type"])
	assert.Equal(t, "AUTO", mm["fuzziness"])
}

func TestBuildSearchQueryFuzzinessToggle(t *testing.T) {
	req := baseRequest()
	req.EnableFuzzy = false

	mm := mustMatch(t, BuildSearchQuery(req))
	_, ok := mm["fuzziness"]
	assert.False(t, ok)
}

func TestBuildSearchQueryFilters(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	req := baseRequest()
	req.Filters = &models.SearchFilters{
		Category:     "maintenance",
		MachineModel: "K-500",
		DateFrom:     &from,
		DateTo:       &to,
		PartNumbers:  []string{"HF-6177"},
	}

	clauses := filterClauses(t, BuildSearchQuery(req))
	require.Len(t, clauses, 4)

	assert.Contains(t, clauses, map[string]any{
		"term": map[string]any{"category": "maintenance"},
	})
	assert.Contains(t, clauses, map[string]any{
		"term": map[string]any{"machine_model": "K-500"},
	})
	assert.Contains(t, clauses, map[string]any{
		"range": map[string]any{"upload_date": map[string]any{
			"gte": "2025-01-01T00:00:00Z",
			"lte": "2025-06-30T00:00:00Z",
		}},
	})
	assert.Contains(t, clauses, map[string]any{
		"terms": map[string]any{"part_numbers": []string{"HF-6177"}},
	})
}

func TestBuildSearchQueryNoFilters(t *testing.T) {
	req := baseRequest()
	assert.Nil(t, filterClauses(t, BuildSearchQuery(req)))

	req.Filters = &models.SearchFilters{}
	assert.Nil(t, filterClauses(t, BuildSearchQuery(req)))
}

func TestBuildSearchQueryHighlighting(t *testing.T) {
	t.Run("snippet mode", func(t *testing.T) {
		body := BuildSearchQuery(baseRequest())
		hl := body["highlight"].(map[string]any)
		content := hl["fields"].(map[string]any)["content"].(map[string]any)
		assert.Equal(t, 150, content["fragment_size"])
		assert.Equal(t, 1, content["number_of_fragments"])
	})

	t.Run("full content mode", func(t *testing.T) {
		req := baseRequest()
		req.IncludeContent = true
		body := BuildSearchQuery(req)
		content := body["highlight"].(map[string]any)["fields"].(map[string]any)["content"].(map[string]any)
		assert.Equal(t, 0, content["number_of_fragments"])
		_, ok := content["fragment_size"]
		assert.False(t, ok)
	})

	t.Run("disabled", func(t *testing.T) {
		req := baseRequest()
		req.IncludeHighlights = false
		_, ok := BuildSearchQuery(req)["highlight"]
		assert.False(t, ok)
	})
}

func TestBuildSearchQuerySortOrder(t *testing.T) {
	body := BuildSearchQuery(baseRequest())
	sortClause := body["sort"].([]any)
	require.Len(t, sortClause, 2)
	assert.Equal(t, "_score", sortClause[0])
	assert.Equal(t, map[string]any{"upload_date": map[string]any{"order": "desc"}}, sortClause[1])
}
