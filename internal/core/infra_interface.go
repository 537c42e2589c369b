package core

import (
	"context"
	"io"
	"time"

	"github.com/velasqa/manualsearch/internal/models"
)

// StatusUpdate carries the optional fields written alongside a status change.
// Nil fields are left untouched.
type StatusUpdate struct {
	ErrorMessage *string
	TotalPages   *int
	IndexedAt    *time.Time
}

// DbClient defines all persistence operations the services need.
// It abstracts Postgres so higher layers never depend on a specific DB.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocumentByID(ctx context.Context, id string) (*models.Document, error)
	ListDocuments(ctx context.Context, status *models.ProcessingStatus, category *models.DocumentCategory, limit, offset int) ([]models.Document, error)
	CountDocuments(ctx context.Context, status *models.ProcessingStatus, category *models.DocumentCategory) (int, error)
	UpdateDocumentStatus(ctx context.Context, id string, status models.ProcessingStatus, upd *StatusUpdate) error
	DeleteDocument(ctx context.Context, id string) (bool, error)

	CreateFeedback(ctx context.Context, fb *models.Feedback) error
	GetFeedbackCounts(ctx context.Context, documentID string, page int) (positive, negative int, err error)

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, body io.Reader, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// IndexHit is one raw hit from the search index, before boosting.
type IndexHit struct {
	ID         string
	Score      float64
	Source     models.DocumentPage
	Highlights map[string][]string
}

// IndexSearchResult is the raw answer of one index query.
type IndexSearchResult struct {
	TookMs int
	Total  int
	Hits   []IndexHit
}

// IndexClient defines the full-text index operations the pipeline and the
// search service need. Implemented against Elasticsearch.
type IndexClient interface {
	EnsureIndex(ctx context.Context) error
	BulkIndexPages(ctx context.Context, pages []models.DocumentPage) (indexed int, failures []string, err error)
	UpdateSummary(ctx context.Context, pageID, summary string) error
	PagesByDocument(ctx context.Context, documentID string, limit int) ([]models.DocumentPage, error)
	DeleteByDocument(ctx context.Context, documentID string) (deleted int, err error)
	Search(ctx context.Context, body map[string]any, from, size int) (*IndexSearchResult, error)
}

// PageParser converts a PDF file into markdown with page-boundary markers.
type PageParser interface {
	Parse(ctx context.Context, filePath string) (string, error)
}

// Summarizer produces a short summary of one page of text.
type Summarizer interface {
	Summarize(ctx context.Context, content string) (string, error)
}
