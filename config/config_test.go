package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{SupabaseURLEnvVar, SupabaseKeyEnvVar, MenuDirEnvVar, BackendEnvVar, DatabaseURLEnvVar, EnvFileEnvVar} {
		t.Setenv(k, "")
	}
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)
	path := writeEnvFile(t, "SUPABASE_URL=https://abc.supabase.co\nSUPABASE_API_KEY=secret\nMENU_DIR=/srv/menus\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://abc.supabase.co", cfg.SupabaseURL)
	assert.Equal(t, "secret", cfg.SupabaseKey)
	assert.Equal(t, "/srv/menus", cfg.MenuDir)
	assert.Equal(t, BackendSupabase, cfg.Backend)
	assert.NoError(t, cfg.ValidateImporter())
}

func TestProcessEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeEnvFile(t, "SUPABASE_URL=https://file.supabase.co\nSUPABASE_API_KEY=file-key\n")
	t.Setenv(SupabaseKeyEnvVar, "env-key")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://file.supabase.co", cfg.SupabaseURL)
	assert.Equal(t, "env-key", cfg.SupabaseKey)
}

func TestMissingEnvFileIsNotAnError(t *testing.T) {
	clearEnv(t)
	t.Setenv(SupabaseURLEnvVar, "https://abc.supabase.co")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, "https://abc.supabase.co", cfg.SupabaseURL)
}

func TestValidate(t *testing.T) {
	t.Run("supabase needs url and key", func(t *testing.T) {
		cfg := &Config{Backend: BackendSupabase, SupabaseURL: "https://abc.supabase.co"}
		assert.ErrorIs(t, cfg.ValidateBackend(), ErrMissingCredentials)
	})

	t.Run("importer needs a menu dir", func(t *testing.T) {
		cfg := &Config{Backend: BackendSupabase, SupabaseURL: "u", SupabaseKey: "k"}
		assert.NoError(t, cfg.ValidateBackend())
		assert.ErrorContains(t, cfg.ValidateImporter(), MenuDirEnvVar)
	})

	t.Run("sqlite defaults its path", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(BackendEnvVar, "SQLite")
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, BackendSQLite, cfg.Backend)
		assert.Equal(t, DefaultSQLitePath, cfg.DatabaseURL)
		assert.NoError(t, cfg.ValidateBackend())
	})

	t.Run("postgres needs a dsn", func(t *testing.T) {
		cfg := &Config{Backend: BackendPostgres}
		assert.ErrorContains(t, cfg.ValidateBackend(), DatabaseURLEnvVar)
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := &Config{Backend: "mongo"}
		assert.ErrorContains(t, cfg.ValidateBackend(), "unsupported")
	})
}

func TestEnvFile(t *testing.T) {
	t.Setenv(EnvFileEnvVar, "")
	assert.Equal(t, DefaultEnvFile, EnvFile())
	t.Setenv(EnvFileEnvVar, "/etc/menuadmin.env")
	assert.Equal(t, "/etc/menuadmin.env", EnvFile())
}
