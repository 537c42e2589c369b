package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/velasqa/manualsearch/internal/core"
)

const summarySystemPrompt = "You are a technical documentation summarizer for industrial equipment. " +
	"Create concise summaries that capture:\n" +
	"1. Main topics and key information\n" +
	"2. Important part numbers, model numbers, or specifications\n" +
	"3. Critical procedures or warnings\n" +
	"Keep the summary factual and technical."

// maxInputChars bounds the prompt size sent per page.
const maxInputChars = 100000

// minContentLen is the shortest page worth summarizing. Shorter input is
// rejected as a validation error and must never enter a retry loop.
const minContentLen = 50

type GeminiSummarizer struct {
	client    *genai.Client
	modelName string
}

func NewGeminiSummarizer(ctx context.Context, apiKey, modelName string) (*GeminiSummarizer, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &GeminiSummarizer{client: cl, modelName: modelName}, nil
}

func (g *GeminiSummarizer) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Summarize produces a 2-4 sentence technical summary of one page.
func (g *GeminiSummarizer) Summarize(ctx context.Context, content string) (string, error) {
	if len(strings.TrimSpace(content)) < minContentLen {
		return "", fmt.Errorf("%w: content is too short to summarize", core.ErrValidation)
	}
	if len(content) > maxInputChars {
		content = content[:maxInputChars]
	}

	m := g.client.GenerativeModel(g.modelName)
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(summarySystemPrompt)},
	}

	userPrompt := "Summarize the following technical document page in 2-4 concise sentences. " +
		"Focus on the main topics, key specifications, and important details:\n\n" + content

	resp, err := m.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String()), nil
}

var _ core.Summarizer = (*GeminiSummarizer)(nil)
