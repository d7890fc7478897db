package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data:   DataConfig{Path: "/data", Engine: EngineBadger},
		TMDB: TMDBConfig{
			MinVoteCount:      50,
			MaxVoteCount:      1000,
			RequestsPerSecond: 20,
		},
		Blob: BlobConfig{Backend: BlobLocal, Path: "/data/blobs"},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_ProductionRequiresAPIKey(t *testing.T) {
	cfg := validConfig()
	cfg.App.Environment = "production"
	assert.ErrorContains(t, cfg.Validate(), "TMDB_API_KEY")

	cfg.TMDB.APIKey = "k"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.Logger.Level = "verbose" }},
		{"empty data path", func(c *Config) { c.Data.Path = "" }},
		{"engine", func(c *Config) { c.Data.Engine = "postgres" }},
		{"vote bounds", func(c *Config) { c.TMDB.MinVoteCount = 2000 }},
		{"rate", func(c *Config) { c.TMDB.RequestsPerSecond = 0 }},
		{"blob backend", func(c *Config) { c.Blob.Backend = "s3" }},
		{"minio without endpoint", func(c *Config) { c.Blob.Backend = BlobMinio }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATA_PATH", t.TempDir())

	cfg, err := Load([]string{"-env-file", filepath.Join(t.TempDir(), "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, EngineBadger, cfg.Data.Engine)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenDuration)
	assert.Equal(t, "https://api.themoviedb.org/3", cfg.TMDB.BaseURL)
	assert.Equal(t, 50, cfg.TMDB.MinVoteCount)
	assert.Equal(t, 1000, cfg.TMDB.MaxVoteCount)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, filepath.Join(cfg.Data.Path, "blobs"), cfg.Blob.Path)
}

func TestLoad_FlagBeatsEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SERVER_PORT=7000\nLOG_LEVEL=warn\nTMDB_MAX_VOTE_COUNT=500\n"), 0o600))

	t.Setenv("DATA_PATH", dir)
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("LOG_LEVEL", "error")
	// Unset keys are filled from the file; t.Setenv restores them afterwards.
	t.Setenv("TMDB_MAX_VOTE_COUNT", "")
	require.NoError(t, os.Unsetenv("TMDB_MAX_VOTE_COUNT"))

	cfg, err := Load([]string{"-env-file", envFile, "-log-level", "debug", "-write-timeout", "0s"})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)  // flag
	assert.Equal(t, "9000", cfg.Server.Port)    // env over file
	assert.Equal(t, 500, cfg.TMDB.MaxVoteCount) // file over default
	assert.Equal(t, time.Duration(0), cfg.Server.WriteTimeout)
}

func TestLoad_InvalidDurationFlag(t *testing.T) {
	t.Setenv("DATA_PATH", t.TempDir())

	_, err := Load([]string{"-env-file", "/nonexistent/.env", "-read-timeout", "soon"})
	assert.ErrorContains(t, err, "invalid read timeout")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/films", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "films"), got)

	got, err = expandPath("", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/default", got)

	got, err = expandPath("/abs/../abs/path", "")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", got)
}

func TestLoadEnvFile_ValidFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := `# Test env file
UF_TEST_ENV=staging

UF_TEST_QUOTED="some value"
UF_TEST_SINGLE='another value'
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	for _, k := range []string{"UF_TEST_ENV", "UF_TEST_QUOTED", "UF_TEST_SINGLE"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	require.NoError(t, loadEnvFile(envFile))

	assert.Equal(t, "staging", os.Getenv("UF_TEST_ENV"))
	assert.Equal(t, "some value", os.Getenv("UF_TEST_QUOTED"))
	assert.Equal(t, "another value", os.Getenv("UF_TEST_SINGLE"))
}

func TestLoadEnvFile_InvalidFormat(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("VALID=1\nINVALID LINE\n"), 0o600))

	err := loadEnvFile(envFile)
	assert.ErrorContains(t, err, "invalid format")
}

func TestLoadEnvFile_ExistingEnvVarsNotOverwritten(t *testing.T) {
	t.Setenv("UF_TEST_VAR", "original-value")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("UF_TEST_VAR=new-value"), 0o600))

	require.NoError(t, loadEnvFile(envFile))
	assert.Equal(t, "original-value", os.Getenv("UF_TEST_VAR"))
}
