package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kim-jongsoung/tikfind/internal/domain"
)

// catalogColumns must match the Scan order in scanEntry.
const catalogColumns = `external_media_id, title, artist, thumbnail_url, keywords, provenance,
	popularity, request_count, last_requested_at, is_active, created_at, updated_at`

// CatalogRepo implements domain.CatalogRepository backed by PostgreSQL.
type CatalogRepo struct {
	pool *pgxpool.Pool
}

func NewCatalogRepo(pool *pgxpool.Pool) *CatalogRepo {
	return &CatalogRepo{pool: pool}
}

func scanEntry(row pgx.Row) (*domain.CatalogEntry, error) {
	var entry domain.CatalogEntry
	var lastRequested *time.Time

	err := row.Scan(
		&entry.ExternalMediaID, &entry.Title, &entry.Artist, &entry.ThumbnailURL,
		&entry.Keywords, &entry.Provenance, &entry.Popularity, &entry.RequestCount,
		&lastRequested, &entry.IsActive, &entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastRequested != nil {
		entry.LastRequestedAt = *lastRequested
	}
	return &entry, nil
}

func (r *CatalogRepo) findOne(ctx context.Context, query string, args ...any) (*domain.CatalogEntry, error) {
	entry, err := scanEntry(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *CatalogRepo) FindExact(ctx context.Context, title, artist string) (*domain.CatalogEntry, error) {
	return r.findOne(WithQueryLabel(ctx, "catalog_find_exact"), `
		SELECT `+catalogColumns+`
		FROM catalog_entries
		WHERE LOWER(title) = LOWER($1) AND LOWER(artist) = LOWER($2) AND is_active
		ORDER BY popularity DESC, request_count DESC
		LIMIT 1
	`, title, artist)
}

func (r *CatalogRepo) FindByTitle(ctx context.Context, title string) (*domain.CatalogEntry, error) {
	return r.findOne(WithQueryLabel(ctx, "catalog_find_by_title"), `
		SELECT `+catalogColumns+`
		FROM catalog_entries
		WHERE LOWER(title) = LOWER($1) AND is_active
		ORDER BY popularity DESC, request_count DESC
		LIMIT 1
	`, title)
}

func (r *CatalogRepo) FindTitleSubstring(ctx context.Context, title string) (*domain.CatalogEntry, error) {
	return r.findOne(WithQueryLabel(ctx, "catalog_find_title_substring"), `
		SELECT `+catalogColumns+`
		FROM catalog_entries
		WHERE title ILIKE '%' || $1 || '%' AND is_active
		ORDER BY popularity DESC, request_count DESC
		LIMIT 1
	`, title)
}

func (r *CatalogRepo) SearchKeywords(ctx context.Context, query string, limit int) ([]domain.CatalogEntry, error) {
	rows, err := r.pool.Query(WithQueryLabel(ctx, "catalog_search_keywords"), `
		SELECT `+catalogColumns+`
		FROM catalog_entries
		WHERE to_tsvector('simple', title || ' ' || artist) @@ plainto_tsquery('simple', $1)
			AND is_active
		ORDER BY popularity DESC, request_count DESC
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	defer rows.Close()

	var entries []domain.CatalogEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan catalog entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// Upsert inserts the entry if its external media ID is new. Concurrent
// resolutions of the same song race here; DO NOTHING keeps the first.
func (r *CatalogRepo) Upsert(ctx context.Context, entry domain.CatalogEntry) error {
	_, err := r.pool.Exec(WithQueryLabel(ctx, "catalog_upsert"), `
		INSERT INTO catalog_entries
			(external_media_id, title, artist, thumbnail_url, keywords, provenance,
			 popularity, request_count, last_requested_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (external_media_id) DO NOTHING
	`, entry.ExternalMediaID, entry.Title, entry.Artist, entry.ThumbnailURL,
		entry.Keywords, entry.Provenance, entry.Popularity, entry.RequestCount,
		nullableTime(entry.LastRequestedAt), entry.IsActive)
	if err != nil {
		return fmt.Errorf("failed to upsert catalog entry: %w", err)
	}
	return nil
}

func (r *CatalogRepo) IncrementRequestCount(ctx context.Context, externalMediaID string) error {
	_, err := r.pool.Exec(WithQueryLabel(ctx, "catalog_increment_request_count"), `
		UPDATE catalog_entries
		SET request_count = request_count + 1,
			last_requested_at = NOW(),
			updated_at = NOW()
		WHERE external_media_id = $1
	`, externalMediaID)
	if err != nil {
		return fmt.Errorf("failed to increment request count: %w", err)
	}
	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
