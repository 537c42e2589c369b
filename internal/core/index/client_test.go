package index

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velasqa/manualsearch/internal/models"
)

func TestMappingIsValidJSON(t *testing.T) {
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(mapping), &m))
	require.Contains(t, m, "mappings")
	require.Contains(t, m, "settings")
}

// Terms filters perform no analysis, so the top-level part_numbers field must
// stay keyword: an analyzed top-level field would store lowercased tokens and
// never match the canonical uppercase values the chunker extracts. The
// relevance query uses the analyzed subfield instead.
func TestMappingPartNumbersFieldShape(t *testing.T) {
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(mapping), &m))

	props := m["mappings"].(map[string]any)["properties"].(map[string]any)
	pn, ok := props["part_numbers"].(map[string]any)
	require.True(t, ok)

	assert.Equal(t, "keyword", pn["type"])

	analyzed, ok := pn["fields"].(map[string]any)["analyzed"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "text", analyzed["type"])
	assert.Equal(t, "part_number_analyzer", analyzed["analyzer"])
}

// The filter clause and the relevance weight must target different sides of
// the part_numbers field: raw keyword for exact filtering, analyzed subfield
// for scoring.
func TestPartNumberFilterTargetsKeywordField(t *testing.T) {
	req := baseRequest()
	mm := mustMatch(t, BuildSearchQuery(req))
	assert.Contains(t, mm["fields"], "part_numbers.analyzed^3")
	assert.NotContains(t, mm["fields"], "part_numbers^3")

	req.Filters = &models.SearchFilters{PartNumbers: []string{"HF-6177"}}
	clauses := filterClauses(t, BuildSearchQuery(req))
	require.Len(t, clauses, 1)
	assert.Equal(t, map[string]any{
		"terms": map[string]any{"part_numbers": []string{"HF-6177"}},
	}, clauses[0])
}
