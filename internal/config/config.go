// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Store engines.
const (
	EngineBadger = "badger"
	EngineSQLite = "sqlite"
)

// Blob backends.
const (
	BlobLocal = "local"
	BlobMinio = "minio"
)

// Config holds the application configuration.
type Config struct {
	App    AppConfig
	Logger LoggerConfig
	Data   DataConfig
	Server ServerConfig
	Auth   AuthConfig
	TMDB   TMDBConfig
	Blob   BlobConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `env:"ENV" envDefault:"development"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// DataConfig holds document store configuration.
type DataConfig struct {
	Path   string `env:"DATA_PATH"`
	Engine string `env:"STORE_ENGINE" envDefault:"badger"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string        `env:"SERVER_PORT" envDefault:"8080"`
	PublicURL    string        `env:"SERVER_PUBLIC_URL"` // used to build local blob URLs
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	CORSOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key for access tokens (32 bytes). Set by auth.LoadOrGenerateKey.
	AccessTokenKey []byte

	AccessTokenDuration  time.Duration `env:"ACCESS_TOKEN_DURATION" envDefault:"15m"`
	RefreshTokenDuration time.Duration `env:"REFRESH_TOKEN_DURATION" envDefault:"720h"`
	// Login and signup attempts per client IP per minute.
	LoginAttemptsPerMinute int `env:"LOGIN_ATTEMPTS_PER_MINUTE" envDefault:"10"`
}

// TMDBConfig holds catalog service configuration.
type TMDBConfig struct {
	APIKey            string        `env:"TMDB_API_KEY"`
	BaseURL           string        `env:"TMDB_BASE_URL" envDefault:"https://api.themoviedb.org/3"`
	ImageBaseURL      string        `env:"TMDB_IMAGE_BASE_URL" envDefault:"https://image.tmdb.org/t/p/w500"`
	Timeout           time.Duration `env:"TMDB_TIMEOUT" envDefault:"10s"`
	MinVoteCount      int           `env:"TMDB_MIN_VOTE_COUNT" envDefault:"50"`
	MaxVoteCount      int           `env:"TMDB_MAX_VOTE_COUNT" envDefault:"1000"`
	RequestsPerSecond float64       `env:"TMDB_REQUESTS_PER_SECOND" envDefault:"20"`
}

// BlobConfig holds photo storage configuration.
type BlobConfig struct {
	Backend string `env:"BLOB_BACKEND" envDefault:"local"`
	// Path is the local backend root (default: {data}/blobs).
	Path string `env:"BLOB_PATH"`

	MinioEndpoint  string `env:"MINIO_ENDPOINT"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioBucket    string `env:"MINIO_BUCKET" envDefault:"uniquefilms"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"true"`
}

// LoadConfig loads configuration from the process arguments and environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("uniquefilms", flag.ContinueOnError)

	envName := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base path for the document store")
	engine := fs.String("store-engine", "", "Document store engine (badger, sqlite)")
	port := fs.String("port", "", "Server port (default: 8080)")
	publicURL := fs.String("public-url", "", "Public base URL of this server")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	accessTokenDuration := fs.String("access-token-duration", "", "Access token lifetime (e.g., 15m)")
	refreshTokenDuration := fs.String("refresh-token-duration", "", "Refresh token lifetime (e.g., 720h)")
	tmdbKey := fs.String("tmdb-api-key", "", "TMDB API key")
	tmdbBaseURL := fs.String("tmdb-base-url", "", "TMDB API base URL")
	blobBackend := fs.String("blob-backend", "", "Photo storage backend (local, minio)")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	override(&cfg.App.Environment, *envName)
	override(&cfg.Logger.Level, *logLevel)
	override(&cfg.Data.Path, *dataPath)
	override(&cfg.Data.Engine, *engine)
	override(&cfg.Server.Port, *port)
	override(&cfg.Server.PublicURL, *publicURL)
	override(&cfg.TMDB.APIKey, *tmdbKey)
	override(&cfg.TMDB.BaseURL, *tmdbBaseURL)
	override(&cfg.Blob.Backend, *blobBackend)

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"read timeout", *readTimeout, &cfg.Server.ReadTimeout},
		{"write timeout", *writeTimeout, &cfg.Server.WriteTimeout},
		{"idle timeout", *idleTimeout, &cfg.Server.IdleTimeout},
		{"access token duration", *accessTokenDuration, &cfg.Auth.AccessTokenDuration},
		{"refresh token duration", *refreshTokenDuration, &cfg.Auth.RefreshTokenDuration},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.name, d.value, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.Path == "" {
		return errors.New("data path cannot be empty after expansion")
	}
	if c.Data.Engine != EngineBadger && c.Data.Engine != EngineSQLite {
		return fmt.Errorf("invalid store engine: %s (must be badger or sqlite)", c.Data.Engine)
	}

	if c.App.Environment == "production" && c.TMDB.APIKey == "" {
		return errors.New("TMDB_API_KEY is required in production")
	}
	if c.TMDB.MinVoteCount < 0 || c.TMDB.MaxVoteCount < c.TMDB.MinVoteCount {
		return fmt.Errorf("invalid vote count bounds: %d..%d", c.TMDB.MinVoteCount, c.TMDB.MaxVoteCount)
	}
	if c.TMDB.RequestsPerSecond <= 0 {
		return errors.New("TMDB requests per second must be positive")
	}

	switch c.Blob.Backend {
	case BlobLocal:
	case BlobMinio:
		if c.Blob.MinioEndpoint == "" || c.Blob.MinioBucket == "" {
			return errors.New("MINIO_ENDPOINT and MINIO_BUCKET are required for the minio blob backend")
		}
	default:
		return fmt.Errorf("invalid blob backend: %s (must be local or minio)", c.Blob.Backend)
	}

	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}

func override(dst *string, flagValue string) {
	if flagValue != "" {
		*dst = flagValue
	}
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, uses defaultPath.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandPaths resolves the data path (default ~/UniqueFilms/data) and the
// local blob path (default {data}/blobs).
func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	dataPath, err := expandPath(c.Data.Path, filepath.Join(homeDir, "UniqueFilms", "data"))
	if err != nil {
		return err
	}
	c.Data.Path = dataPath

	blobPath, err := expandPath(c.Blob.Path, filepath.Join(dataPath, "blobs"))
	if err != nil {
		return err
	}
	c.Blob.Path = blobPath
	return nil
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Real environment variables win over the file.
		if _, set := os.LookupEnv(key); !set {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
