package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velasqa/manualsearch/internal/core"
	"github.com/velasqa/manualsearch/internal/core/search"
	"github.com/velasqa/manualsearch/internal/models"
)

type fakeStore struct {
	docs     map[string]*models.Document
	feedback []*models.Feedback
	positive int
	negative int
}

func (f *fakeStore) CreateUser(ctx context.Context, user *models.User) error { return nil }
func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, core.ErrNotFound
}
func (f *fakeStore) CreateDocument(ctx context.Context, doc *models.Document) error { return nil }
func (f *fakeStore) GetDocumentByID(ctx context.Context, id string) (*models.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: document %s", core.ErrNotFound, id)
	}
	return doc, nil
}
func (f *fakeStore) ListDocuments(ctx context.Context, status *models.ProcessingStatus, category *models.DocumentCategory, limit, offset int) ([]models.Document, error) {
	return nil, nil
}
func (f *fakeStore) CountDocuments(ctx context.Context, status *models.ProcessingStatus, category *models.DocumentCategory) (int, error) {
	return 0, nil
}
func (f *fakeStore) UpdateDocumentStatus(ctx context.Context, id string, status models.ProcessingStatus, upd *core.StatusUpdate) error {
	return nil
}
func (f *fakeStore) DeleteDocument(ctx context.Context, id string) (bool, error) { return false, nil }
func (f *fakeStore) CreateFeedback(ctx context.Context, fb *models.Feedback) error {
	f.feedback = append(f.feedback, fb)
	return nil
}
func (f *fakeStore) GetFeedbackCounts(ctx context.Context, documentID string, page int) (int, int, error) {
	return f.positive, f.negative, nil
}
func (f *fakeStore) Close() error { return nil }

type stubIndex struct{}

func (stubIndex) EnsureIndex(ctx context.Context) error { return nil }
func (stubIndex) BulkIndexPages(ctx context.Context, pages []models.DocumentPage) (int, []string, error) {
	return 0, nil, nil
}
func (stubIndex) UpdateSummary(ctx context.Context, pageID, summary string) error { return nil }
func (stubIndex) PagesByDocument(ctx context.Context, documentID string, limit int) ([]models.DocumentPage, error) {
	return nil, nil
}
func (stubIndex) DeleteByDocument(ctx context.Context, documentID string) (int, error) {
	return 0, nil
}
func (stubIndex) Search(ctx context.Context, body map[string]any, from, size int) (*core.IndexSearchResult, error) {
	return &core.IndexSearchResult{}, nil
}

func feedbackRouter(store *fakeStore) http.Handler {
	svc := search.NewService(stubIndex{}, search.NewBoostCache(store, time.Minute), slog.New(slog.DiscardHandler))
	h := NewFeedbackHandler(store, svc)

	r := chi.NewRouter()
	r.Post("/feedback", h.SubmitFeedback)
	r.Get("/feedback/stats/{id}/{page}", h.FeedbackStats)
	return r
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSubmitFeedback(t *testing.T) {
	store := &fakeStore{docs: map[string]*models.Document{
		"doc-1": {ID: "doc-1"},
	}}
	router := feedbackRouter(store)

	t.Run("records a valid vote", func(t *testing.T) {
		rec := postJSON(t, router, "/feedback",
			`{"query":"oil filter","document_id":"doc-1","page":3,"rating":"positive"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		require.Len(t, store.feedback, 1)
		fb := store.feedback[0]
		assert.Equal(t, "doc-1", fb.DocumentID)
		assert.Equal(t, 3, fb.Page)
		assert.Equal(t, models.RatingPositive, fb.Rating)
		assert.NotEmpty(t, fb.ID)
	})

	t.Run("rejects unknown document", func(t *testing.T) {
		rec := postJSON(t, router, "/feedback",
			`{"query":"oil filter","document_id":"ghost","page":1,"rating":"positive"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		bad := []string{
			`{"document_id":"doc-1","page":1,"rating":"positive"}`,
			`{"query":"q","page":1,"rating":"positive"}`,
			`{"query":"q","document_id":"doc-1","page":0,"rating":"positive"}`,
			`{"query":"q","document_id":"doc-1","page":1,"rating":"great"}`,
			`not json`,
		}
		for _, body := range bad {
			rec := postJSON(t, router, "/feedback", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		}
	})
}

func TestFeedbackStats(t *testing.T) {
	store := &fakeStore{
		docs:     map[string]*models.Document{"doc-1": {ID: "doc-1"}},
		positive: 4,
		negative: 1,
	}
	router := feedbackRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/feedback/stats/doc-1/2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.FeedbackStats
	data, _ := io.ReadAll(rec.Body)
	require.NoError(t, json.Unmarshal(data, &stats))

	assert.Equal(t, "doc-1", stats.DocumentID)
	assert.Equal(t, 2, stats.Page)
	assert.Equal(t, 4, stats.PositiveCount)
	assert.Equal(t, 1, stats.NegativeCount)
	assert.Equal(t, 5, stats.TotalCount)
	assert.InDelta(t, 1.3, stats.BoostScore, 1e-9)
}

func TestFeedbackStatsUnknownDocument(t *testing.T) {
	router := feedbackRouter(&fakeStore{docs: map[string]*models.Document{}})

	req := httptest.NewRequest(http.MethodGet, "/feedback/stats/ghost/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
