package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/velasqa/manualsearch/internal/core"
)

// ADEClient calls the document-analysis parse service: one multipart POST per
// PDF, JSON response carrying the extracted markdown with page-boundary
// markers ("Page: n of total").
type ADEClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewADEClient(baseURL, apiKey string) (*ADEClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("parser URL not set")
	}
	return &ADEClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

// ValidatePDFPath rejects inputs that can never succeed, before any attempt.
func ValidatePDFPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: pdf file not found: %s", core.ErrValidation, path)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: path is not a file: %s", core.ErrValidation, path)
	}
	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		return fmt.Errorf("%w: file is not a PDF: %s", core.ErrValidation, path)
	}
	return nil
}

// Parse uploads the PDF and returns the markdown the service extracted.
func (c *ADEClient) Parse(ctx context.Context, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("document", filepath.Base(filePath))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/parse", pr)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("parse request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("parse service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out struct {
		Markdown string `json:"markdown"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode parse response: %w", err)
	}
	if out.Markdown == "" {
		return "", fmt.Errorf("no markdown content returned for %s", filepath.Base(filePath))
	}
	return out.Markdown, nil
}

var _ core.PageParser = (*ADEClient)(nil)
