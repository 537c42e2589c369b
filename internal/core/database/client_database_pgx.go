package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/velasqa/manualsearch/internal/config"
	"github.com/velasqa/manualsearch/internal/core"
	"github.com/velasqa/manualsearch/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Users

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`
	_, err := c.db.ExecContext(ctx, q, user.ID, user.Email, user.PasswordHash, user.CreatedAt)
	return err
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `
		SELECT id, email, password_hash, created_at
		FROM users WHERE email = $1
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Documents

func (c *DatabaseClient) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	const q = `
		INSERT INTO documents
			(id, filename, original_filename, storage_url, file_size, category,
			 machine_model, processing_status, upload_date, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, COALESCE($9, now()), now(), now())
	`
	_, err := c.db.ExecContext(ctx, q,
		doc.ID, doc.Filename, doc.OriginalFilename, doc.StorageURL, doc.FileSize,
		doc.Category, doc.MachineModel, doc.Status, doc.UploadDate)
	return err
}

func (c *DatabaseClient) GetDocumentByID(ctx context.Context, id string) (*models.Document, error) {
	const q = `
		SELECT id, filename, original_filename, storage_url, file_size, category,
		       COALESCE(machine_model, ''), processing_status, total_pages,
		       COALESCE(error_message, ''), upload_date, indexed_at, created_at, updated_at
		FROM documents
		WHERE id = $1
	`
	var d models.Document
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.Filename, &d.OriginalFilename, &d.StorageURL, &d.FileSize, &d.Category,
		&d.MachineModel, &d.Status, &d.TotalPages, &d.ErrorMessage,
		&d.UploadDate, &d.IndexedAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *DatabaseClient) ListDocuments(ctx context.Context, status *models.ProcessingStatus, category *models.DocumentCategory, limit, offset int) ([]models.Document, error) {
	const q = `
		SELECT id, filename, original_filename, storage_url, file_size, category,
		       COALESCE(machine_model, ''), processing_status, total_pages,
		       COALESCE(error_message, ''), upload_date, indexed_at, created_at, updated_at
		FROM documents
		WHERE ($1::text IS NULL OR processing_status = $1)
		  AND ($2::text IS NULL OR category = $2)
		ORDER BY upload_date DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := c.db.QueryContext(ctx, q, statusArg(status), categoryArg(category), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(
			&d.ID, &d.Filename, &d.OriginalFilename, &d.StorageURL, &d.FileSize, &d.Category,
			&d.MachineModel, &d.Status, &d.TotalPages, &d.ErrorMessage,
			&d.UploadDate, &d.IndexedAt, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) CountDocuments(ctx context.Context, status *models.ProcessingStatus, category *models.DocumentCategory) (int, error) {
	const q = `
		SELECT count(*) FROM documents
		WHERE ($1::text IS NULL OR processing_status = $1)
		  AND ($2::text IS NULL OR category = $2)
	`
	var n int
	err := c.db.QueryRowContext(ctx, q, statusArg(status), categoryArg(category)).Scan(&n)
	return n, err
}

// UpdateDocumentStatus writes the new stage immediately so concurrent status
// queries see the most recently entered stage. Optional fields come from upd.
func (c *DatabaseClient) UpdateDocumentStatus(ctx context.Context, id string, status models.ProcessingStatus, upd *core.StatusUpdate) error {
	if upd == nil {
		upd = &core.StatusUpdate{}
	}
	const q = `
		UPDATE documents
		SET processing_status = $2,
		    error_message = COALESCE($3, error_message),
		    total_pages = COALESCE($4, total_pages),
		    indexed_at = COALESCE($5, indexed_at),
		    updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, status, upd.ErrorMessage, upd.TotalPages, upd.IndexedAt)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (c *DatabaseClient) DeleteDocument(ctx context.Context, id string) (bool, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Feedback

func (c *DatabaseClient) CreateFeedback(ctx context.Context, fb *models.Feedback) error {
	if fb == nil {
		return errors.New("nil feedback")
	}
	const q = `
		INSERT INTO feedback (id, query, document_id, page, rating, session_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), COALESCE($7, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		fb.ID, fb.Query, fb.DocumentID, fb.Page, fb.Rating, fb.SessionID, fb.CreatedAt)
	return err
}

func (c *DatabaseClient) GetFeedbackCounts(ctx context.Context, documentID string, page int) (int, int, error) {
	const q = `
		SELECT
			count(*) FILTER (WHERE rating = 'positive'),
			count(*) FILTER (WHERE rating = 'negative')
		FROM feedback
		WHERE document_id = $1 AND page = $2
	`
	var pos, neg int
	if err := c.db.QueryRowContext(ctx, q, documentID, page).Scan(&pos, &neg); err != nil {
		return 0, 0, err
	}
	return pos, neg, nil
}

func statusArg(s *models.ProcessingStatus) any {
	if s == nil {
		return nil
	}
	return string(*s)
}

func categoryArg(c *models.DocumentCategory) any {
	if c == nil {
		return nil
	}
	return string(*c)
}
