package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortly/internal/database"
	"github.com/vadimbarashkov/shortly/internal/models"
)

type urlRecord struct {
	ID           int64          `db:"id"`
	ShortCode    string         `db:"short_code"`
	CustomAlias  sql.NullString `db:"custom_alias"`
	OriginalURL  string         `db:"original_url"`
	OwnerID      sql.NullString `db:"owner_id"`
	ClickCount   int64          `db:"click_count"`
	LastAccessed sql.NullTime   `db:"last_accessed"`
	CreatedAt    time.Time      `db:"created_at"`
}

func (r *urlRecord) ToURL() *models.URL {
	return &models.URL{
		ID:           r.ID,
		ShortCode:    r.ShortCode,
		CustomAlias:  r.CustomAlias.String,
		OriginalURL:  r.OriginalURL,
		OwnerID:      r.OwnerID.String,
		ClickCount:   r.ClickCount,
		LastAccessed: r.LastAccessed.Time,
		CreatedAt:    r.CreatedAt,
	}
}

type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{
		db: db,
	}
}

// Create inserts a new url record. The UNIQUE constraint on short_code is the
// authoritative uniqueness check: a conflicting insert fails with
// database.ErrShortCodeExists and the caller decides whether to retry.
func (r *URLRepository) Create(ctx context.Context, shortCode, customAlias, originalURL, ownerID string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.Create"

	rec := new(urlRecord)
	query := `INSERT INTO urls(short_code, custom_alias, original_url, owner_id)
		VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''))
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, shortCode, customAlias, originalURL, ownerID)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrShortCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to create url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

// RegisterClick resolves a code to its url record while atomically bumping the
// click counter and the last access timestamp. The record is matched by either
// short_code or custom_alias, both fields being stored redundantly.
func (r *URLRepository) RegisterClick(ctx context.Context, code string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.RegisterClick"

	rec := new(urlRecord)
	query := `UPDATE urls
		SET click_count = click_count + 1, last_accessed = now()
		WHERE short_code = $1 OR custom_alias = $1
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to register click: %w", op, err)
	}

	return rec.ToURL(), nil
}

// ListByOwner returns the urls submitted by the given owner, newest first.
func (r *URLRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.URL, error) {
	const op = "database.postgres.URLRepository.ListByOwner"

	var recs []urlRecord
	query := `SELECT * FROM urls
		WHERE owner_id = $1
		ORDER BY created_at DESC`

	err := r.db.SelectContext(ctx, &recs, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list url records: %w", op, err)
	}

	urls := make([]*models.URL, 0, len(recs))
	for i := range recs {
		urls = append(urls, recs[i].ToURL())
	}

	return urls, nil
}

// Delete removes a url record by id, scoped to its owner.
func (r *URLRepository) Delete(ctx context.Context, id int64, ownerID string) error {
	const op = "database.postgres.URLRepository.Delete"

	query := `DELETE FROM urls
		WHERE id = $1 AND owner_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("%s: failed to delete url record: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
	}

	return nil
}
