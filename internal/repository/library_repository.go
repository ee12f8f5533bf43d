package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"movie-discovery-catalog-service/internal/models"
)

// ErrNotFound is returned when a saved item does not exist for the user.
var ErrNotFound = errors.New("not found")

// LibraryRepository stores saved items and user preferences.
type LibraryRepository struct {
	db *sql.DB
}

// NewLibraryRepository creates a new LibraryRepository.
func NewLibraryRepository(db *sql.DB) *LibraryRepository {
	return &LibraryRepository{db: db}
}

const savedItemColumns = `id, user_id, list, media_type, tmdb_id, title, release_year,
	genre_ids, origin_country, poster_path, backdrop_path, created_at`

// SaveItem adds an item to one of the user's lists. Saving the same entity
// twice returns the existing row.
func (r *LibraryRepository) SaveItem(ctx context.Context, userID, list string, req models.SaveItemRequest) (*models.SavedItem, error) {
	genres := make(pq.Int64Array, 0, len(req.GenreIDs))
	for _, g := range req.GenreIDs {
		genres = append(genres, int64(g))
	}
	countries := req.OriginCountry
	if countries == nil {
		countries = []string{}
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO saved_items (id, user_id, list, media_type, tmdb_id, title, release_year,
			genre_ids, origin_country, poster_path, backdrop_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, list, media_type, tmdb_id) DO UPDATE SET
			title = EXCLUDED.title,
			genre_ids = EXCLUDED.genre_ids,
			origin_country = EXCLUDED.origin_country,
			poster_path = EXCLUDED.poster_path,
			backdrop_path = EXCLUDED.backdrop_path
		RETURNING `+savedItemColumns,
		uuid.NewString(), userID, list, req.MediaType, req.TMDBId, req.Title, req.ReleaseYear,
		genres, pq.Array(countries), req.PosterPath, req.BackdropPath,
	)
	item, err := scanSavedItem(row)
	if err != nil {
		return nil, fmt.Errorf("failed to save item: %w", err)
	}
	return item, nil
}

// ListItems returns the user's list, newest first.
func (r *LibraryRepository) ListItems(ctx context.Context, userID, list string) ([]models.SavedItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+savedItemColumns+`
		FROM saved_items
		WHERE user_id = $1 AND list = $2
		ORDER BY created_at DESC
	`, userID, list)
	if err != nil {
		return nil, fmt.Errorf("failed to query saved items: %w", err)
	}
	defer rows.Close()

	items := []models.SavedItem{}
	for rows.Next() {
		item, err := scanSavedItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saved item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// RemoveItem deletes one saved entity from the user's list.
func (r *LibraryRepository) RemoveItem(ctx context.Context, userID, list string, key models.ItemKey) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM saved_items
		WHERE user_id = $1 AND list = $2 AND media_type = $3 AND tmdb_id = $4
	`, userID, list, key.MediaType, key.ID)
	if err != nil {
		return fmt.Errorf("failed to remove saved item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertPreference creates or updates the user's preferences.
func (r *LibraryRepository) UpsertPreference(ctx context.Context, userID string, req models.SetPreferenceRequest) (*models.UserPreference, error) {
	var pref models.UserPreference
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO user_preferences (user_id, adult_content, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			adult_content = EXCLUDED.adult_content,
			updated_at = NOW()
		RETURNING user_id, adult_content, updated_at
	`, userID, req.AdultContent).Scan(&pref.UserID, &pref.AdultContent, &pref.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert preference: %w", err)
	}
	return &pref, nil
}

// GetPreference returns the user's preferences, or the restrictive
// defaults when none were ever stored.
func (r *LibraryRepository) GetPreference(ctx context.Context, userID string) (*models.UserPreference, error) {
	pref := models.UserPreference{UserID: userID}
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, adult_content, updated_at
		FROM user_preferences WHERE user_id = $1
	`, userID).Scan(&pref.UserID, &pref.AdultContent, &pref.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &pref, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preference: %w", err)
	}
	return &pref, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSavedItem(row rowScanner) (*models.SavedItem, error) {
	var (
		item      models.SavedItem
		genres    pq.Int64Array
		countries []string
	)
	if err := row.Scan(
		&item.ID, &item.UserID, &item.List, &item.MediaType, &item.TMDBId, &item.Title, &item.ReleaseYear,
		&genres, pq.Array(&countries), &item.PosterPath, &item.BackdropPath, &item.CreatedAt,
	); err != nil {
		return nil, err
	}
	item.GenreIDs = make([]int, 0, len(genres))
	for _, g := range genres {
		item.GenreIDs = append(item.GenreIDs, int(g))
	}
	if countries == nil {
		countries = []string{}
	}
	item.OriginCountry = countries
	item.PosterURL = models.PosterURL(item.PosterPath)
	item.BackdropURL = models.BackdropURL(item.BackdropPath)
	return &item, nil
}
