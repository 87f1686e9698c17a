package repository

import (
	"context"
	"database/sql"

	"github.com/basel-ax/promptpix/internal/domain"
)

// PostgresImageRepository implements domain.ImageRepository for PostgreSQL
type PostgresImageRepository struct {
	db *sql.DB
}

// NewPostgresImageRepository creates a new PostgreSQL image repository
func NewPostgresImageRepository(db *sql.DB) *PostgresImageRepository {
	return &PostgresImageRepository{db: db}
}

// Append inserts a generation record and returns its server-assigned id
func (r *PostgresImageRepository) Append(ctx context.Context, prompt, imageURL string, generationTime float64) (string, error) {
	query := `
		INSERT INTO image_generations (prompt, image_url, generation_time, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id
	`

	var id string
	if err := r.db.QueryRowContext(ctx, query, prompt, imageURL, generationTime).Scan(&id); err != nil {
		return "", &domain.PersistenceError{Op: "append", Err: err}
	}
	return id, nil
}

// Recent returns up to limit records, most recent first.
// A limit above domain.MaxHistory is capped; a non-positive limit yields no records.
func (r *PostgresImageRepository) Recent(ctx context.Context, limit int) ([]domain.ImageRecord, error) {
	if limit <= 0 {
		return []domain.ImageRecord{}, nil
	}
	if limit > domain.MaxHistory {
		limit = domain.MaxHistory
	}

	query := `
		SELECT id, prompt, image_url, generation_time, created_at
		FROM image_generations
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "recent", Err: err}
	}
	defer rows.Close()

	records := make([]domain.ImageRecord, 0, limit)
	for rows.Next() {
		var rec domain.ImageRecord
		if err := rows.Scan(&rec.ID, &rec.Prompt, &rec.ImageURL, &rec.GenerationTime, &rec.CreatedAt); err != nil {
			return nil, &domain.PersistenceError{Op: "recent", Err: err}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "recent", Err: err}
	}
	return records, nil
}

// ImageURLs returns the image URL of every record
func (r *PostgresImageRepository) ImageURLs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT image_url FROM image_generations`)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "image urls", Err: err}
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, &domain.PersistenceError{Op: "image urls", Err: err}
		}
		urls = append(urls, u)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "image urls", Err: err}
	}
	return urls, nil
}
