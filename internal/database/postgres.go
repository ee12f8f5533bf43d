package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"movie-discovery-catalog-service/internal/config"
)

// NewPostgres opens the saved-items database and applies migrations.
func NewPostgres(cfg config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := prepare(db, cfg.DBName); err != nil {
		return nil, err
	}
	return db, nil
}

// prepare checks the connection and migrates the schema. db is closed on
// failure.
func prepare(db *sql.DB, name string) error {
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)

	slog.Info("connected to PostgreSQL", "db", name)

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Migrations are applied in order on every start; each one is idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS saved_items (
		id UUID PRIMARY KEY,
		user_id VARCHAR(128) NOT NULL,
		list VARCHAR(20) NOT NULL,
		media_type VARCHAR(10) NOT NULL,
		tmdb_id INTEGER NOT NULL,
		title VARCHAR(500) NOT NULL DEFAULT '',
		release_year INTEGER NOT NULL DEFAULT 0,
		genre_ids INTEGER[] DEFAULT '{}',
		origin_country TEXT[] DEFAULT '{}',
		poster_path VARCHAR(255) NOT NULL DEFAULT '',
		backdrop_path VARCHAR(255) NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT NOW(),
		UNIQUE(user_id, list, media_type, tmdb_id)
	)`,
	`CREATE TABLE IF NOT EXISTS user_preferences (
		user_id VARCHAR(128) PRIMARY KEY,
		adult_content BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TIMESTAMP DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS genres (
		id INTEGER NOT NULL,
		media_type VARCHAR(10) NOT NULL,
		name VARCHAR(100) NOT NULL,
		PRIMARY KEY (id, media_type)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_saved_items_user_list ON saved_items(user_id, list, created_at DESC)`,
}

func runMigrations(db *sql.DB) error {
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	slog.Info("database migrations completed")
	return nil
}
