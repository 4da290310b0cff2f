package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"menuadmin/config"
	"menuadmin/db"
	"menuadmin/model"
)

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "menuadmin.db")
	require.NoError(t, os.WriteFile(src, []byte("sqlite bytes"), 0o600))

	dst := filepath.Join(dir, "menuadmin.db.20250101-000000.bak")
	require.NoError(t, copyFile(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "sqlite bytes", string(got))

	assert.Error(t, copyFile(dir, filepath.Join(dir, "x.bak")), "directories are refused")
	assert.Error(t, copyFile(filepath.Join(dir, "missing.db"), filepath.Join(dir, "y.bak")))
}

func TestPruneOldBackups(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "menuadmin.db")
	names := []string{
		"menuadmin.db.20250101-000000.bak",
		"menuadmin.db.20250102-000000.bak",
		"menuadmin.db.20250103-000000.bak",
		"menuadmin.db.20250104-000000.bak",
		"other.db.20250101-000000.bak",
		"menuadmin.db",
	}
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o600))
	}

	pruneOldBackups(dbPath, 2, zap.NewNop().Sugar())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var left []string
	for _, e := range entries {
		left = append(left, e.Name())
	}
	assert.ElementsMatch(t, []string{
		"menuadmin.db.20250103-000000.bak",
		"menuadmin.db.20250104-000000.bak",
		"other.db.20250101-000000.bak",
		"menuadmin.db",
	}, left)
}

func TestPruneOldBackupsNegativeKeep(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "menuadmin.db")
	backup := filepath.Join(dir, "menuadmin.db.20250101-000000.bak")
	require.NoError(t, os.WriteFile(backup, nil, 0o600))

	assert.NotPanics(t, func() { pruneOldBackups(dbPath, -1, zap.NewNop().Sugar()) })
	assert.FileExists(t, backup)
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.Execute()
}

func TestRejectsNegativeMaxBackups(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "menuadmin.db")
	err := execute(t, "--db", dbPath, "--max-backups=-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--max-backups")
	assert.NoFileExists(t, dbPath)
}

func TestReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	menuDir := filepath.Join(dir, "menus")
	require.NoError(t, os.Mkdir(menuDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(menuDir, "Pizza Place.json"), []byte(`{}`), 0o600))
	dbPath := filepath.Join(dir, "from-env.db")

	envFile := filepath.Join(dir, "bootstrap.env")
	env := config.BackendEnvVar + "=sqlite\n" +
		config.DatabaseURLEnvVar + "=" + dbPath + "\n" +
		config.MenuDirEnvVar + "=" + menuDir + "\n"
	require.NoError(t, os.WriteFile(envFile, []byte(env), 0o600))

	t.Setenv(config.EnvFileEnvVar, envFile)
	t.Setenv(config.BackendEnvVar, "")
	t.Setenv(config.DatabaseURLEnvVar, "")
	t.Setenv(config.MenuDirEnvVar, "")

	require.NoError(t, execute(t, "--backup=false"))
	assert.NoFileExists(t, config.DefaultSQLitePath)

	gdb, err := db.OpenGorm(config.BackendSQLite, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	var names []string
	require.NoError(t, gdb.Model(&model.Restaurant{}).Pluck("name", &names).Error)
	assert.Equal(t, []string{"Pizza Place"}, names)
}

func TestLocalBackend(t *testing.T) {
	assert.Equal(t, config.BackendSQLite, localBackend(""))
	assert.Equal(t, config.BackendSQLite, localBackend(config.BackendSupabase))
	assert.Equal(t, config.BackendPostgres, localBackend(config.BackendPostgres))
}
