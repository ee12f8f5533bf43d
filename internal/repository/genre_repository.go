package repository

import (
	"context"
	"database/sql"
	"fmt"

	"movie-discovery-catalog-service/internal/models"
)

// GenreRepository stores the catalog genre directory used for labels.
type GenreRepository struct {
	db *sql.DB
}

// NewGenreRepository creates a new GenreRepository.
func NewGenreRepository(db *sql.DB) *GenreRepository {
	return &GenreRepository{db: db}
}

// UpsertGenre inserts or renames a genre.
func (r *GenreRepository) UpsertGenre(ctx context.Context, g models.Genre) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO genres (id, media_type, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id, media_type) DO UPDATE SET name = EXCLUDED.name
	`, g.ID, g.MediaType, g.Name)
	if err != nil {
		return fmt.Errorf("failed to upsert genre %d: %w", g.ID, err)
	}
	return nil
}

// GenreNames returns id → name over both media types. Movie names win when
// an id exists for both.
func (r *GenreRepository) GenreNames(ctx context.Context) (map[int]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name FROM genres ORDER BY media_type = 'movie', id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query genres: %w", err)
	}
	defer rows.Close()

	names := make(map[int]string)
	for rows.Next() {
		var (
			id   int
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan genre: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}
