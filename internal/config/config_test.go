package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "data/bookshelf.db", cfg.Database.Path)
	assert.Equal(t, "bookshelf", cfg.Auth.Issuer)
	assert.Equal(t, 60, cfg.Auth.TokenTTLMinutes)
	assert.Equal(t, bcrypt.DefaultCost, cfg.Auth.BCryptCost)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, time.Hour, cfg.TokenTTL())

	assert.ErrorContains(t, cfg.Validate(), "jwt secret is required")
}

func TestLoad_Environment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BOOKSHELF_SERVER_ADDR", "127.0.0.1:9090")
	t.Setenv("BOOKSHELF_DATABASE_DRIVER", "Postgres")
	t.Setenv("BOOKSHELF_DATABASE_DSN", "postgres://books@localhost/books")
	t.Setenv("BOOKSHELF_AUTH_JWTSECRET", "topsecret")
	t.Setenv("BOOKSHELF_AUTH_TOKENTTLMINUTES", "15")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://books@localhost/books", cfg.Database.DSN)
	assert.Equal(t, "topsecret", cfg.Auth.JWTSecret)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	dotEnv := "# local settings\nBOOKSHELF_AUTH_JWTSECRET=\"from-file\"\nexport BOOKSHELF_LOG_LEVEL=debug\nBOOKSHELF_SERVER_ADDR=:7000\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(dotEnv), 0o600))

	t.Setenv("BOOKSHELF_SERVER_ADDR", ":8081")
	// Setenv registers cleanup so values written by loadDotEnv are restored.
	t.Setenv("BOOKSHELF_AUTH_JWTSECRET", "")
	require.NoError(t, os.Unsetenv("BOOKSHELF_AUTH_JWTSECRET"))
	t.Setenv("BOOKSHELF_LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("BOOKSHELF_LOG_LEVEL"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":8081", cfg.Server.Addr)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var cfg Config
		cfg.Database.Driver = DriverSQLite
		cfg.Database.Path = "books.db"
		cfg.Auth.JWTSecret = "secret"
		cfg.Auth.TokenTTLMinutes = 60
		return cfg
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name    string
		mutate  func(*Config)
		message string
	}{
		{name: "blank secret", mutate: func(c *Config) { c.Auth.JWTSecret = "  " }, message: "jwt secret"},
		{name: "zero ttl", mutate: func(c *Config) { c.Auth.TokenTTLMinutes = 0 }, message: "ttl must be positive"},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, message: "unsupported database driver"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Database.Driver = DriverPostgres }, message: "dsn is required"},
		{name: "sqlite without path", mutate: func(c *Config) { c.Database.Path = "" }, message: "path is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.message)
		})
	}
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+) on older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
