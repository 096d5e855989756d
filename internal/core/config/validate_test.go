package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a Config with all required fields set for testing.
func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Server.StaticDir = t.TempDir()
	return &cfg
}

func TestValidateDeep_ValidConfig(t *testing.T) {
	cfg := validConfig(t)

	err := cfg.ValidateDeep("")
	assert.NoError(t, err, "expected valid config")
}

func TestValidateDeep_InvalidAddr(t *testing.T) {
	cfg := validConfig(t)
	cfg.Server.Addr = "localhost"

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Len(t, fieldErrs, 1)
	assert.Contains(t, fieldErrs[0].Field, "server.addr")
}

func TestValidateDeep_SavesDirIsFile(t *testing.T) {
	cfg := validConfig(t)
	file := filepath.Join(t.TempDir(), "saves")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	cfg.Saves.Dir = file

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Len(t, fieldErrs, 1)
	assert.Contains(t, fieldErrs[0].Field, "saves.dir")
	assert.Contains(t, fieldErrs[0].Err.Error(), "not a directory")
}

func TestValidateDeep_MissingDirsAreFine(t *testing.T) {
	cfg := validConfig(t)
	cfg.Saves.Dir = filepath.Join(t.TempDir(), "not", "yet")
	cfg.Server.StaticDir = filepath.Join(t.TempDir(), "absent")

	assert.NoError(t, cfg.ValidateDeep(""))
}

func TestValidateDeep_ConfigPathIsDirectory(t *testing.T) {
	cfg := validConfig(t)
	dir := t.TempDir()

	err := cfg.ValidateDeep(dir)

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs[0].Field, "config_file")
}

func TestValidateDeep_StructuralErrorFirst(t *testing.T) {
	cfg := validConfig(t)
	cfg.Server.Addr = ""

	err := cfg.ValidateDeep("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.addr cannot be empty")
}

func TestWarnings(t *testing.T) {
	t.Run("clean config", func(t *testing.T) {
		cfg := validConfig(t)
		assert.Empty(t, cfg.Warnings())
	})

	t.Run("missing static dir", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Server.StaticDir = filepath.Join(t.TempDir(), "absent")

		warnings := cfg.Warnings()
		require.Len(t, warnings, 1)
		assert.Equal(t, "static_dir", warnings[0].Item)
	})

	t.Run("debug enabled", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Server.Debug = true

		warnings := cfg.Warnings()
		require.Len(t, warnings, 1)
		assert.Equal(t, "debug", warnings[0].Item)
	})
}
