package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/velasqa/manualsearch/internal/config"
	"github.com/velasqa/manualsearch/internal/core"
	"github.com/velasqa/manualsearch/internal/core/ingestion_engine"
	"github.com/velasqa/manualsearch/internal/models"
)

type DocumentHandler struct {
	dbclient     core.DbClient
	objectclient core.ObjectClient
	indexclient  core.IndexClient
	processor    *ingestion_engine.DocumentProcessor
	cfg          *config.Config
	logger       *slog.Logger
}

func NewDocumentHandler(
	dbclient core.DbClient,
	objectclient core.ObjectClient,
	indexclient core.IndexClient,
	processor *ingestion_engine.DocumentProcessor,
	cfg *config.Config,
	logger *slog.Logger,
) *DocumentHandler {
	return &DocumentHandler{
		dbclient:     dbclient,
		objectclient: objectclient,
		indexclient:  indexclient,
		processor:    processor,
		cfg:          cfg,
		logger:       logger,
	}
}

// UploadDocument accepts a PDF, stores it, records the metadata row and
// enqueues it for background ingestion. Responds 202: processing is async.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(h.cfg.MaxFileSizeMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	cleanFilename := filepath.Base(header.Filename)
	if !strings.EqualFold(filepath.Ext(cleanFilename), ".pdf") {
		writeError(w, http.StatusBadRequest, "only PDF files are supported")
		return
	}
	if header.Size > maxBytes {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("file exceeds the %d MB limit", h.cfg.MaxFileSizeMB))
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/pdf"
	}
	if contentType != "application/pdf" && contentType != "application/octet-stream" {
		writeError(w, http.StatusBadRequest, "content type must be application/pdf")
		return
	}

	category, err := models.ParseCategory(r.FormValue("category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	generateSummaries := true
	if v := r.FormValue("generate_summaries"); v != "" {
		generateSummaries, err = strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "generate_summaries must be a boolean")
			return
		}
	}

	docID := uuid.NewString()
	s3Key := fmt.Sprintf("%s/%s", docID, cleanFilename)

	uploadctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	url, err := h.objectclient.UploadFile(uploadctx, h.cfg.BucketName, s3Key, file, contentType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("upload failed: %v", err))
		return
	}

	now := time.Now().UTC()
	doc := &models.Document{
		ID:               docID,
		Filename:         s3Key,
		OriginalFilename: cleanFilename,
		StorageURL:       url,
		FileSize:         header.Size,
		Category:         category,
		MachineModel:     strings.TrimSpace(r.FormValue("machine_model")),
		Status:           models.StatusUploaded,
		UploadDate:       now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := h.dbclient.CreateDocument(uploadctx, doc); err != nil {
		h.logger.Error("db insert failed", "document_id", docID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store document metadata")
		return
	}

	h.processor.Enqueue(ingestion_engine.Job{
		DocumentID:        doc.ID,
		GenerateSummaries: generateSummaries,
	})
	h.logger.Info("document queued for ingestion",
		"document_id", doc.ID, "filename", cleanFilename, "size", header.Size)

	writeJSON(w, http.StatusAccepted, doc)
}

// GetDocuments lists documents with optional status/category filters and
// limit/offset pagination.
func (h *DocumentHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	var status *models.ProcessingStatus
	if s := r.URL.Query().Get("status"); s != "" {
		parsed, err := models.ParseStatus(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		status = &parsed
	}

	var category *models.DocumentCategory
	if c := r.URL.Query().Get("category"); c != "" {
		parsed, err := models.ParseCategory(c)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		category = &parsed
	}

	limit := queryInt(r, "limit", 20, 1, 100)
	offset := queryInt(r, "offset", 0, 0, 1<<30)

	documents, err := h.dbclient.ListDocuments(r.Context(), status, category, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := h.dbclient.CountDocuments(r.Context(), status, category)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"documents": documents,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
	})
}

// GetDocument returns the metadata row for one document.
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.dbclient.GetDocumentByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// DownloadDocument streams the stored PDF back to the caller.
func (h *DocumentHandler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.dbclient.GetDocumentByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	rc, err := h.objectclient.GetObjectReader(r.Context(), h.cfg.BucketName, doc.Filename)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("fetch from storage failed: %v", err))
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", doc.OriginalFilename))
	if doc.FileSize > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(doc.FileSize, 10))
	}
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("download interrupted", "document_id", doc.ID, "error", err)
	}
}

// DeleteDocument removes the index entries and the stored PDF concurrently,
// then the metadata row. Missing index/storage entries do not fail the
// delete; only an absent metadata row yields 404.
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, err := h.dbclient.GetDocumentByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var pagesDeleted int
	g, gctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		n, err := h.indexclient.DeleteByDocument(gctx, id)
		if err != nil {
			h.logger.Warn("index cleanup failed", "document_id", id, "error", err)
			return nil
		}
		pagesDeleted = n
		return nil
	})
	g.Go(func() error {
		if err := h.objectclient.DeleteFile(gctx, h.cfg.BucketName, doc.Filename); err != nil {
			h.logger.Warn("storage cleanup failed", "document_id", id, "error", err)
		}
		return nil
	})
	_ = g.Wait()

	found, err := h.dbclient.DeleteDocument(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}

	h.logger.Info("document deleted", "document_id", id, "pages_removed", pagesDeleted)
	writeJSON(w, http.StatusOK, map[string]any{
		"document_id":   id,
		"pages_removed": pagesDeleted,
	})
}

// ResummarizeDocument regenerates page summaries for a ready document in the
// background. Responds 202 immediately.
func (h *DocumentHandler) ResummarizeDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, err := h.dbclient.GetDocumentByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if doc.Status != models.StatusReady {
		writeError(w, http.StatusConflict,
			fmt.Sprintf("document is %s; summaries can only be regenerated once it is ready", doc.Status))
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		updated, err := h.processor.ResummarizeDocument(ctx, id)
		if err != nil {
			h.logger.Error("resummarize failed", "document_id", id, "error", err)
			return
		}
		h.logger.Info("summaries regenerated", "document_id", id, "pages_updated", updated)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"document_id": id,
		"message":     "summary regeneration started",
	})
}

// queryInt parses an integer query parameter, clamping it into [min, max].
func queryInt(r *http.Request, name string, def, min, max int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
