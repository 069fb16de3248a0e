package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	APIBaseURL string
	APIAppID   string
	APIKey     string

	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyRefreshToken string
	SpotifyUserID       string

	StorageDriver    string
	SQLitePath       string
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int
	ChartTimeout   time.Duration

	InputsPath     string
	OutputFolder   string
	PushgatewayURL string

	ScrapePlaylists bool
	ScrapeCharts    bool
	ScrapeRanking   bool
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		APIBaseURL: getEnv("SOUNDCHARTS_BASE_URL", "https://customer.api.soundcharts.com"),
		APIAppID:   getEnv("SOUNDCHARTS_APP_ID", ""),
		APIKey:     getEnv("SOUNDCHARTS_API_KEY", ""),

		SpotifyClientID:     getEnv("SPOTIFY_CLIENT_ID", ""),
		SpotifyClientSecret: getEnv("SPOTIFY_CLIENT_SECRET", ""),
		SpotifyRefreshToken: getEnv("SPOTIFY_REFRESH_TOKEN", ""),
		SpotifyUserID:       getEnv("SPOTIFY_USER_ID", ""),

		StorageDriver:    getEnv("STORAGE_DRIVER", "sqlite3"),
		SQLitePath:       getEnv("SQLITE_PATH", "./output/song_scraper.db"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "songs_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 10),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 50),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		ChartTimeout:   getEnvDuration("CHART_TIMEOUT", 60*time.Second),

		InputsPath:     getEnv("INPUTS_PATH", "./inputs.yaml"),
		OutputFolder:   getEnv("OUTPUT_FOLDER", "./output"),
		PushgatewayURL: getEnv("PUSHGATEWAY_URL", ""),

		ScrapePlaylists: getEnvBool("SCRAPE_PLAYLISTS", true),
		ScrapeCharts:    getEnvBool("SCRAPE_CHARTS", true),
		ScrapeRanking:   getEnvBool("SCRAPE_RANKING", false),
	}
}

// Validate reports missing settings that the scraper cannot run without.
func (c *Config) Validate() error {
	var missing []string
	if c.APIAppID == "" {
		missing = append(missing, "SOUNDCHARTS_APP_ID")
	}
	if c.APIKey == "" {
		missing = append(missing, "SOUNDCHARTS_API_KEY")
	}
	switch c.StorageDriver {
	case "sqlite3", "postgres":
	default:
		return &ConfigurationError{Field: "STORAGE_DRIVER", Problem: "must be sqlite3 or postgres, got " + strconv.Quote(c.StorageDriver)}
	}
	if len(missing) > 0 {
		return &ConfigurationError{Field: strings.Join(missing, ", "), Problem: "required"}
	}
	return nil
}

// SpotifyEnabled reports whether playlist publishing credentials are present.
func (c *Config) SpotifyEnabled() bool {
	return c.SpotifyClientID != "" && c.SpotifyClientSecret != "" &&
		c.SpotifyRefreshToken != "" && c.SpotifyUserID != ""
}

// DSN returns the connection string for the configured storage driver.
func (c *Config) DSN() string {
	if c.StorageDriver == "sqlite3" {
		return c.SQLitePath
	}
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}
