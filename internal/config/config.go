package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the catalog service.
type Config struct {
	DB       DBConfig
	Redis    RedisConfig
	TMDB     TMDBConfig
	YouTube  YouTubeConfig
	Pipeline PipelineConfig
	Port     string
	LogLevel string

	RateLimitMax           int
	RateLimitWindowSeconds int
}

// DBConfig holds PostgreSQL configuration.
type DBConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	SSLRootCert string
}

// DSN returns the PostgreSQL connection string.
func (d DBConfig) DSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
	if d.SSLRootCert != "" {
		dsn += fmt.Sprintf(" sslrootcert=%s", d.SSLRootCert)
	}
	return dsn
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// TMDBConfig holds catalog API configuration.
type TMDBConfig struct {
	APIKey  string
	BaseURL string
	// RequestsPerSecond and Burst throttle outbound calls; TMDB rejects
	// sustained bursts with 429.
	RequestsPerSecond float64
	Burst             int
	CacheTTL          time.Duration
	Timeout           time.Duration
}

// YouTubeConfig holds video search API configuration.
type YouTubeConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// PipelineConfig holds the tunables of the aggregation pipeline.
type PipelineConfig struct {
	TrendingTarget       int
	SuggestionPool       int
	SuggestionSample     int
	RecommendationTarget int
	TopGenres            int
	AffinityLocale       string
	SearchDebounce       time.Duration
	CastLimit            int
	PlayableLimit        int
	SessionIdleTTL       time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	rps, err := strconv.ParseFloat(getEnv("TMDB_REQUESTS_PER_SECOND", "20"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TMDB_REQUESTS_PER_SECOND: %w", err)
	}

	cfg := &Config{
		DB: DBConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        dbPort,
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			DBName:      getEnv("DB_NAME", "catalog_service"),
			SSLMode:     getEnv("DB_SSLMODE", "verify-ca"),
			SSLRootCert: getEnv("DB_SSLROOTCERT", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		TMDB: TMDBConfig{
			APIKey:            getEnv("TMDB_API_KEY", "XXXXXX"),
			BaseURL:           getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
			RequestsPerSecond: rps,
			Burst:             getEnvInt("TMDB_BURST", 10),
			CacheTTL:          time.Duration(getEnvInt("TMDB_CACHE_TTL_SECONDS", 300)) * time.Second,
			Timeout:           time.Duration(getEnvInt("TMDB_TIMEOUT_SECONDS", 15)) * time.Second,
		},
		YouTube: YouTubeConfig{
			APIKey:  getEnv("YOUTUBE_API_KEY", ""),
			BaseURL: getEnv("YOUTUBE_BASE_URL", "https://www.googleapis.com/youtube/v3"),
			Timeout: time.Duration(getEnvInt("YOUTUBE_TIMEOUT_SECONDS", 15)) * time.Second,
		},
		Pipeline: PipelineConfig{
			TrendingTarget:       getEnvInt("TRENDING_TARGET", 20),
			SuggestionPool:       getEnvInt("SUGGESTION_POOL", 12),
			SuggestionSample:     getEnvInt("SUGGESTION_SAMPLE", 4),
			RecommendationTarget: getEnvInt("RECOMMENDATION_TARGET", 36),
			TopGenres:            getEnvInt("AFFINITY_TOP_GENRES", 6),
			AffinityLocale:       getEnv("AFFINITY_LOCALE", "KR"),
			SearchDebounce:       time.Duration(getEnvInt("SEARCH_DEBOUNCE_MS", 500)) * time.Millisecond,
			CastLimit:            getEnvInt("DETAIL_CAST_LIMIT", 12),
			PlayableLimit:        getEnvInt("PLAYABLE_SOURCE_LIMIT", 15),
			SessionIdleTTL:       time.Duration(getEnvInt("SESSION_IDLE_TTL_MINUTES", 30)) * time.Minute,
		},
		Port:                   getEnv("SERVER_PORT", "8084"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		RateLimitMax:           getEnvInt("RATE_LIMIT_MAX", 100),
		RateLimitWindowSeconds: getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}
