package ingestion_engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/velasqa/manualsearch/internal/core"
	"github.com/velasqa/manualsearch/internal/core/parser"
	"github.com/velasqa/manualsearch/internal/models"
)

// ProcessorConfig tunes one processor instance.
//
// RetryAttempts/RetryBackoff drive both the parse and the summarize calls:
// wait = RetryBackoff × attempt index, linear.
type ProcessorConfig struct {
	Bucket        string
	MaxPDFPages   int
	TmpDir        string
	RetryAttempts int
	RetryBackoff  time.Duration
	QueueSize     int
}

// Job is one unit of background ingestion work.
type Job struct {
	DocumentID        string
	GenerateSummaries bool
}

// ProcessResult reports what one pipeline run accomplished.
type ProcessResult struct {
	DocumentID         string
	TotalPages         int
	PagesIndexed       int
	SummariesGenerated int
	Truncated          bool
	OriginalPageCount  int
}

// DocumentProcessor orchestrates the background ingestion pipeline:
// download → page limit → parse → chunk → summarize → bulk index, with the
// stage written to the metadata store as it is entered.
type DocumentProcessor struct {
	db         core.DbClient
	obj        core.ObjectClient
	idx        core.IndexClient
	parse      core.PageParser
	summarizer core.Summarizer
	chunker    *PageChunker
	limiter    *PageLimiter
	cfg        ProcessorConfig
	logger     *slog.Logger
	jobs       chan Job
}

func NewDocumentProcessor(
	db core.DbClient,
	obj core.ObjectClient,
	idx core.IndexClient,
	pageParser core.PageParser,
	summarizer core.Summarizer,
	cfg ProcessorConfig,
	logger *slog.Logger,
) *DocumentProcessor {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 2 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.TmpDir == "" {
		cfg.TmpDir = os.TempDir()
	}
	return &DocumentProcessor{
		db:         db,
		obj:        obj,
		idx:        idx,
		parse:      pageParser,
		summarizer: summarizer,
		chunker:    NewPageChunker(),
		limiter:    NewPageLimiter(cfg.MaxPDFPages),
		cfg:        cfg,
		logger:     logger,
		jobs:       make(chan Job, cfg.QueueSize),
	}
}

// Start runs numWorkers goroutines reading from the jobs channel. Documents
// are independent; within one run the stages are strictly sequential.
func (p *DocumentProcessor) Start(ctx context.Context, numWorkers int) {
	for w := 1; w <= numWorkers; w++ {
		go func(w int) {
			for {
				select {
				case <-ctx.Done():
					p.logger.Info("ingestion worker shutting down", "worker", w)
					return
				case job := <-p.jobs:
					if _, err := p.ProcessOne(ctx, job); err != nil {
						p.logger.Error("document processing failed",
							"worker", w, "document_id", job.DocumentID, "error", err)
					}
				}
			}
		}(w)
	}
}

// Enqueue schedules a document for ingestion. Blocks when the queue is full.
func (p *DocumentProcessor) Enqueue(job Job) {
	p.jobs <- job
}

// ProcessOne runs the full pipeline for a single document. Any stage failure
// transitions the document to failed; the truncated artifact, if one was
// created, is removed no matter which branch was taken.
func (p *DocumentProcessor) ProcessOne(ctx context.Context, job Job) (*ProcessResult, error) {
	docID := job.DocumentID
	result := &ProcessResult{DocumentID: docID}

	doc, err := p.db.GetDocumentByID(ctx, docID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// Deleted before we got to it; nothing to report.
			return result, nil
		}
		return result, fmt.Errorf("load document: %w", err)
	}

	localPath, err := p.download(ctx, doc)
	if err != nil {
		return result, p.fail(ctx, docID, err)
	}
	defer os.Remove(localPath)

	// Stage 1: parsing.
	if err := p.db.UpdateDocumentStatus(ctx, docID, models.StatusParsing, nil); err != nil {
		return result, fmt.Errorf("enter parsing: %w", err)
	}

	pathToParse, originalPages, truncated, err := p.limiter.Limit(localPath)
	if err != nil {
		return result, p.fail(ctx, docID, err)
	}
	// Unconditional artifact cleanup; only limited copies are ever deleted.
	defer func() {
		if cleanupErr := p.limiter.Cleanup(pathToParse); cleanupErr != nil {
			p.logger.Warn("failed to clean up limited pdf", "path", pathToParse, "error", cleanupErr)
		}
	}()

	result.Truncated = truncated
	result.OriginalPageCount = originalPages
	if truncated {
		notice := fmt.Sprintf("Note: PDF truncated from %d to %d pages for processing",
			originalPages, p.limiter.MaxPages)
		p.logger.Warn("pdf exceeds page limit",
			"document_id", docID, "pages", originalPages, "max_pages", p.limiter.MaxPages)
		if err := p.db.UpdateDocumentStatus(ctx, docID, models.StatusParsing, &core.StatusUpdate{ErrorMessage: &notice}); err != nil {
			p.logger.Error("failed to record truncation notice", "document_id", docID, "error", err)
		}
	}

	if err := parser.ValidatePDFPath(pathToParse); err != nil {
		return result, p.fail(ctx, docID, err)
	}

	markdown, err := Retry(ctx, p.cfg.RetryAttempts, p.cfg.RetryBackoff, func(ctx context.Context) (string, error) {
		return p.parse.Parse(ctx, pathToParse)
	})
	if err != nil {
		return result, p.fail(ctx, docID, fmt.Errorf("parse pdf: %w", err))
	}

	chunks := p.chunker.ChunkByPage(markdown)
	result.TotalPages = len(chunks)
	p.logger.Info("chunked document", "document_id", docID, "pages", len(chunks))

	// Stage 2: summarizing. Entered even when summaries were not requested so
	// status polling observes a stable stage sequence.
	if err := p.db.UpdateDocumentStatus(ctx, docID, models.StatusSummarizing, nil); err != nil {
		return result, fmt.Errorf("enter summarizing: %w", err)
	}

	summaries := make([]string, len(chunks))
	if job.GenerateSummaries {
		// Sequential on purpose: the summarization API is rate limited.
		for i, chunk := range chunks {
			summary, err := p.summarizeChunk(ctx, chunk.Content)
			if err != nil {
				if errors.Is(err, core.ErrValidation) {
					// Page too short to summarize; keep an empty summary.
					p.logger.Debug("skipping summary for page",
						"document_id", docID, "page", chunk.Page, "reason", err)
					continue
				}
				// Non-fatal for the document: this page keeps an empty summary.
				p.logger.Warn("failed to summarize page",
					"document_id", docID, "page", chunk.Page, "error", err)
				continue
			}
			summaries[i] = summary
			if summary != "" {
				result.SummariesGenerated++
			}
		}
	}

	// Stage 3: indexing.
	if err := p.db.UpdateDocumentStatus(ctx, docID, models.StatusIndexing, nil); err != nil {
		return result, fmt.Errorf("enter indexing: %w", err)
	}

	now := time.Now().UTC()
	pages := make([]models.DocumentPage, 0, len(chunks))
	for i, chunk := range chunks {
		meta := p.chunker.ExtractMetadata(chunk.Content)
		pages = append(pages, models.DocumentPage{
			DocumentID:   docID,
			Filename:     doc.OriginalFilename,
			Page:         chunk.Page,
			Content:      chunk.Content,
			Summary:      summaries[i],
			Category:     string(doc.Category),
			MachineModel: doc.MachineModel,
			PartNumbers:  meta.PartNumbers,
			UploadDate:   doc.UploadDate,
			IndexedAt:    now,
			FileSize:     doc.FileSize,
			FilePath:     doc.StorageURL,
		})
	}

	indexed, failures, err := p.idx.BulkIndexPages(ctx, pages)
	if err != nil {
		return result, p.fail(ctx, docID, fmt.Errorf("bulk index: %w", err))
	}
	result.PagesIndexed = indexed
	if len(failures) > 0 {
		p.logger.Warn("some pages failed to index",
			"document_id", docID, "failed", len(failures), "first_error", failures[0])
	}

	// Liveness check: a concurrent delete makes the final write a no-op
	// rather than a resurrection of the row's status.
	if _, err := p.db.GetDocumentByID(ctx, docID); errors.Is(err, core.ErrNotFound) {
		p.logger.Info("document deleted mid-pipeline, skipping final status", "document_id", docID)
		return result, nil
	}

	finalMsg := p.finalMessage(result, len(failures))
	totalPages := len(chunks)
	if err := p.db.UpdateDocumentStatus(ctx, docID, models.StatusReady, &core.StatusUpdate{
		ErrorMessage: finalMsg,
		TotalPages:   &totalPages,
		IndexedAt:    &now,
	}); err != nil {
		return result, fmt.Errorf("enter ready: %w", err)
	}

	p.logger.Info("document processed",
		"document_id", docID,
		"pages_indexed", result.PagesIndexed,
		"total_pages", result.TotalPages,
		"summaries", result.SummariesGenerated)
	return result, nil
}

// finalMessage picks the READY status note. The truncation notice always wins
// over per-page indexing errors.
func (p *DocumentProcessor) finalMessage(result *ProcessResult, indexFailures int) *string {
	if result.Truncated {
		msg := fmt.Sprintf("Note: Original PDF had %d pages, processed first %d pages only",
			result.OriginalPageCount, p.limiter.MaxPages)
		return &msg
	}
	if indexFailures > 0 {
		msg := fmt.Sprintf("Note: %d pages failed to index", indexFailures)
		return &msg
	}
	return nil
}

// summarizeChunk retries transient summarizer failures. Validation rejections
// (content too short to summarize) come back immediately, untried twice.
func (p *DocumentProcessor) summarizeChunk(ctx context.Context, content string) (string, error) {
	return Retry(ctx, p.cfg.RetryAttempts, p.cfg.RetryBackoff, func(ctx context.Context) (string, error) {
		return p.summarizer.Summarize(ctx, content)
	})
}

// ResummarizeDocument regenerates summaries for already-indexed pages without
// re-parsing. Only the summary field changes; processing status is untouched.
func (p *DocumentProcessor) ResummarizeDocument(ctx context.Context, docID string) (int, error) {
	pages, err := p.idx.PagesByDocument(ctx, docID, 1000)
	if err != nil {
		return 0, fmt.Errorf("fetch pages: %w", err)
	}
	if len(pages) == 0 {
		return 0, fmt.Errorf("%w: no indexed pages for document %s", core.ErrNotFound, docID)
	}

	updated := 0
	for i := range pages {
		page := &pages[i]
		summary, err := p.summarizeChunk(ctx, page.Content)
		if err != nil {
			p.logger.Warn("failed to regenerate summary",
				"document_id", docID, "page", page.Page, "error", err)
			continue
		}
		if err := p.idx.UpdateSummary(ctx, page.IndexID(), summary); err != nil {
			p.logger.Warn("failed to store regenerated summary",
				"document_id", docID, "page", page.Page, "error", err)
			continue
		}
		updated++
	}
	return updated, nil
}

// download copies the original PDF from object storage into the working
// directory so the limiter and parser can operate on a file path.
func (p *DocumentProcessor) download(ctx context.Context, doc *models.Document) (string, error) {
	bucket, key := parseS3URL(doc.StorageURL)
	if bucket == "" {
		bucket = p.cfg.Bucket
	}

	rc, err := p.obj.GetObjectReader(ctx, bucket, key)
	if err != nil {
		return "", fmt.Errorf("fetch pdf from storage: %w", err)
	}
	defer rc.Close()

	localPath := filepath.Join(p.cfg.TmpDir, doc.ID+".pdf")
	f, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("create temp pdf: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, rc); err != nil {
		os.Remove(localPath)
		return "", fmt.Errorf("download pdf: %w", err)
	}
	return localPath, nil
}

// fail transitions the document to failed, persisting the error's message.
func (p *DocumentProcessor) fail(ctx context.Context, docID string, cause error) error {
	msg := cause.Error()
	if err := p.db.UpdateDocumentStatus(ctx, docID, models.StatusFailed, &core.StatusUpdate{ErrorMessage: &msg}); err != nil {
		p.logger.Error("failed to record failure", "document_id", docID, "error", err)
	}
	return cause
}

// parseS3URL extracts the bucket and key from a virtual-hosted-style S3 URL.
// Example: https://my-bucket.s3.us-east-2.amazonaws.com/path/to/file.pdf
func parseS3URL(u string) (bucket, key string) {
	hostPath := strings.SplitN(strings.TrimPrefix(u, "https://"), "/", 2)
	host := hostPath[0]
	if len(hostPath) == 2 {
		key = hostPath[1]
	}
	parts := strings.Split(host, ".")
	if len(parts) > 0 {
		bucket = parts[0]
	}
	return bucket, key
}
