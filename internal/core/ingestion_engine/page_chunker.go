package ingestion_engine

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// pagePattern matches the parse service's page-boundary markers, both the
// bare form "Page: 2 of 51" and the HTML table row the service wraps it in.
var pagePattern = regexp.MustCompile(
	`(?i)(?:<tr><td[^>]*>\s*)?Page:\s*(?:</td><td[^>]*>\s*)?(\d+)\s+of\s+(\d+)(?:\s*</td></tr>)?`)

var headerPattern = regexp.MustCompile(`(?m)^#+\s+(.+)$`)

// Part number shapes seen across equipment manuals: letter-prefixed dash
// codes, long digit-dash codes, and "P/N:" / "Part Number:" prefixed tokens.
var partNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b([A-Z]{2,}-\d{2,})\b`),
	regexp.MustCompile(`\b(\d{4,}-\d{2,})\b`),
	regexp.MustCompile(`(?i)P/N:?\s*([A-Z0-9-]+)`),
	regexp.MustCompile(`(?i)Part\s+(?:Number|No\.?):?\s*([A-Z0-9-]+)`),
}

// PageChunk is one page's worth of extracted text.
type PageChunk struct {
	Page       int
	Content    string
	TotalPages int
}

// PageMetadata is the lightweight structure extracted from a chunk at index
// time.
type PageMetadata struct {
	Headers     []string
	HasTables   bool
	HasImages   bool
	PartNumbers []string
}

// PageChunker splits parser output into ordered per-page records.
type PageChunker struct{}

func NewPageChunker() *PageChunker {
	return &PageChunker{}
}

// ChunkByPage splits the text at page-boundary markers. Without any marker
// the whole trimmed text becomes page 1 of 1. Chunks whose trimmed content is
// empty are dropped silently.
func (c *PageChunker) ChunkByPage(markdown string) []PageChunk {
	markers := pagePattern.FindAllStringSubmatchIndex(markdown, -1)

	if len(markers) == 0 {
		trimmed := strings.TrimSpace(markdown)
		return []PageChunk{{Page: 1, Content: trimmed, TotalPages: 1}}
	}

	// Total comes from the first marker's declared count.
	totalPages, _ := strconv.Atoi(markdown[markers[0][4]:markers[0][5]])

	chunks := make([]PageChunk, 0, len(markers))
	for i, m := range markers {
		pageNum, _ := strconv.Atoi(markdown[m[2]:m[3]])

		start := m[1]
		end := len(markdown)
		if i < len(markers)-1 {
			end = markers[i+1][0]
		}

		content := strings.TrimSpace(markdown[start:end])
		if content == "" {
			continue
		}

		chunks = append(chunks, PageChunk{
			Page:       pageNum,
			Content:    content,
			TotalPages: totalPages,
		})
	}

	return chunks
}

// ExtractMetadata pulls headers, table/image flags and part numbers out of
// one chunk. Part numbers are deduplicated and sorted for determinism.
func (c *PageChunker) ExtractMetadata(content string) PageMetadata {
	meta := PageMetadata{PartNumbers: []string{}}

	for _, m := range headerPattern.FindAllStringSubmatch(content, -1) {
		meta.Headers = append(meta.Headers, m[1])
	}

	lower := strings.ToLower(content)
	meta.HasTables = strings.Contains(lower, "<table") || strings.Contains(content, "|")
	meta.HasImages = strings.Contains(content, "![") || strings.Contains(lower, "<img")

	seen := map[string]struct{}{}
	for _, pattern := range partNumberPatterns {
		for _, m := range pattern.FindAllStringSubmatch(content, -1) {
			seen[m[1]] = struct{}{}
		}
	}
	for pn := range seen {
		meta.PartNumbers = append(meta.PartNumbers, pn)
	}
	sort.Strings(meta.PartNumbers)

	return meta
}
