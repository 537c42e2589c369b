package handlers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchRequestDefaults(t *testing.T) {
	t.Run("omitted fields", func(t *testing.T) {
		var body searchRequestBody
		require.NoError(t, json.Unmarshal([]byte(`{"query":"oil filter"}`), &body))

		req := body.toRequest()
		assert.Equal(t, 1, req.Page)
		assert.Equal(t, 10, req.PageSize)
		assert.True(t, req.EnableFuzzy)
		assert.True(t, req.IncludeHighlights)
		assert.False(t, req.IncludeContent)
	})

	t.Run("explicit false is preserved", func(t *testing.T) {
		var body searchRequestBody
		require.NoError(t, json.Unmarshal(
			[]byte(`{"query":"q","enable_fuzzy":false,"include_highlights":false}`), &body))

		req := body.toRequest()
		assert.False(t, req.EnableFuzzy)
		assert.False(t, req.IncludeHighlights)
	})

	t.Run("explicit values pass through", func(t *testing.T) {
		var body searchRequestBody
		require.NoError(t, json.Unmarshal(
			[]byte(`{"query":"q","page":4,"page_size":25,"include_content":true}`), &body))

		req := body.toRequest()
		assert.Equal(t, 4, req.Page)
		assert.Equal(t, 25, req.PageSize)
		assert.True(t, req.IncludeContent)
	})
}
