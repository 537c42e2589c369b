package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/velasqa/manualsearch/internal/core"
	"github.com/velasqa/manualsearch/internal/core/search"
	"github.com/velasqa/manualsearch/internal/models"
)

type FeedbackHandler struct {
	dbclient core.DbClient
	service  *search.Service
}

func NewFeedbackHandler(dbclient core.DbClient, service *search.Service) *FeedbackHandler {
	return &FeedbackHandler{dbclient: dbclient, service: service}
}

type feedbackRequest struct {
	Query      string `json:"query"`
	DocumentID string `json:"document_id"`
	Page       int    `json:"page"`
	Rating     string `json:"rating"`
	SessionID  string `json:"session_id"`
}

// SubmitFeedback records one vote for a (document, page) pair and drops the
// cached boost so the next search recomputes it from fresh counts.
func (h *FeedbackHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.DocumentID == "" {
		writeError(w, http.StatusBadRequest, "document_id is required")
		return
	}
	if req.Page < 1 {
		writeError(w, http.StatusBadRequest, "page must be at least 1")
		return
	}
	rating, err := models.ParseRating(req.Rating)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Votes on unknown documents are rejected, not silently stored.
	if _, err := h.dbclient.GetDocumentByID(r.Context(), req.DocumentID); err != nil {
		writeServiceError(w, err)
		return
	}

	fb := &models.Feedback{
		ID:         uuid.NewString(),
		Query:      req.Query,
		DocumentID: req.DocumentID,
		Page:       req.Page,
		Rating:     rating,
		SessionID:  req.SessionID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.dbclient.CreateFeedback(r.Context(), fb); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.service.InvalidateBoost(fb.DocumentID, fb.Page)
	writeJSON(w, http.StatusCreated, fb)
}

// FeedbackStats returns the aggregated vote counts and the boost they imply
// for one (document, page) pair.
func (h *FeedbackHandler) FeedbackStats(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "id")
	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil || page < 1 {
		writeError(w, http.StatusBadRequest, "page must be a positive integer")
		return
	}

	if _, err := h.dbclient.GetDocumentByID(r.Context(), docID); err != nil {
		writeServiceError(w, err)
		return
	}

	positive, negative, err := h.dbclient.GetFeedbackCounts(r.Context(), docID, page)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, models.FeedbackStats{
		DocumentID:    docID,
		Page:          page,
		PositiveCount: positive,
		NegativeCount: negative,
		TotalCount:    positive + negative,
		BoostScore:    search.ComputeBoost(positive, negative),
	})
}
