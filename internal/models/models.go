package models

import (
	"fmt"
	"strings"
	"time"
)

// User represents an authenticated user of the system.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ProcessingStatus tracks which pipeline stage a document has entered.
type ProcessingStatus string

const (
	StatusUploaded    ProcessingStatus = "uploaded"
	StatusParsing     ProcessingStatus = "parsing"
	StatusSummarizing ProcessingStatus = "summarizing"
	StatusIndexing    ProcessingStatus = "indexing"
	StatusReady       ProcessingStatus = "ready"
	StatusFailed      ProcessingStatus = "failed"
)

// ParseStatus validates a status string coming from a query parameter.
func ParseStatus(s string) (ProcessingStatus, error) {
	switch ProcessingStatus(s) {
	case StatusUploaded, StatusParsing, StatusSummarizing, StatusIndexing, StatusReady, StatusFailed:
		return ProcessingStatus(s), nil
	}
	return "", fmt.Errorf("invalid status %q", s)
}

// DocumentCategory classifies a manual.
type DocumentCategory string

const (
	CategoryMaintenance DocumentCategory = "maintenance"
	CategoryOperations  DocumentCategory = "operations"
	CategorySpareParts  DocumentCategory = "spare_parts"
)

// ParseCategory normalizes and validates a category string ("Spare Parts" -> spare_parts).
func ParseCategory(s string) (DocumentCategory, error) {
	norm := DocumentCategory(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_"))
	switch norm {
	case CategoryMaintenance, CategoryOperations, CategorySpareParts:
		return norm, nil
	}
	return "", fmt.Errorf("invalid category %q: must be one of maintenance, operations, spare_parts", s)
}

// Document is the metadata row for an uploaded manual.
type Document struct {
	ID               string           `db:"id" json:"document_id"`
	Filename         string           `db:"filename" json:"-"`
	OriginalFilename string           `db:"original_filename" json:"filename"`
	StorageURL       string           `db:"storage_url" json:"-"`
	FileSize         int64            `db:"file_size" json:"file_size"`
	Category         DocumentCategory `db:"category" json:"category"`
	MachineModel     string           `db:"machine_model" json:"machine_model,omitempty"`
	Status           ProcessingStatus `db:"processing_status" json:"status"`
	TotalPages       *int             `db:"total_pages" json:"total_pages,omitempty"`
	ErrorMessage     string           `db:"error_message" json:"error_message,omitempty"`
	UploadDate       time.Time        `db:"upload_date" json:"upload_date"`
	IndexedAt        *time.Time       `db:"indexed_at" json:"indexed_at,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"-"`
	UpdatedAt        time.Time        `db:"updated_at" json:"-"`
}

// DocumentPage is one indexed page of a document. Immutable after indexing
// except for Summary, which the resummarize operation rewrites in place.
type DocumentPage struct {
	DocumentID   string    `json:"document_id"`
	Filename     string    `json:"filename"`
	Page         int       `json:"page"`
	Content      string    `json:"content"`
	Summary      string    `json:"summary,omitempty"`
	Category     string    `json:"category"`
	MachineModel string    `json:"machine_model,omitempty"`
	PartNumbers  []string  `json:"part_numbers"`
	UploadDate   time.Time `json:"upload_date"`
	IndexedAt    time.Time `json:"indexed_at"`
	FileSize     int64     `json:"file_size"`
	FilePath     string    `json:"file_path"`
}

// IndexID is the page's identity in the search index, unique per document.
func (p *DocumentPage) IndexID() string {
	return fmt.Sprintf("%s_%d", p.DocumentID, p.Page)
}

// FeedbackRating is a binary vote on a search result.
type FeedbackRating string

const (
	RatingPositive FeedbackRating = "positive"
	RatingNegative FeedbackRating = "negative"
)

func ParseRating(s string) (FeedbackRating, error) {
	switch FeedbackRating(s) {
	case RatingPositive, RatingNegative:
		return FeedbackRating(s), nil
	}
	return "", fmt.Errorf("invalid rating %q: must be positive or negative", s)
}

// Feedback is one append-only vote for a (document, page) pair.
type Feedback struct {
	ID         string         `db:"id" json:"feedback_id"`
	Query      string         `db:"query" json:"query"`
	DocumentID string         `db:"document_id" json:"document_id"`
	Page       int            `db:"page" json:"page"`
	Rating     FeedbackRating `db:"rating" json:"rating"`
	SessionID  string         `db:"session_id" json:"session_id,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"timestamp"`
}

// FeedbackStats aggregates all votes for one (document, page).
type FeedbackStats struct {
	DocumentID    string  `json:"document_id"`
	Page          int     `json:"page"`
	PositiveCount int     `json:"positive_count"`
	NegativeCount int     `json:"negative_count"`
	TotalCount    int     `json:"total_count"`
	BoostScore    float64 `json:"boost_score"`
}
