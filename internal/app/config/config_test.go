package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"coredb/internal/app/config"
)

func TestLoadWithoutPathReturnsDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	require.Equal(t, "./data", cfg.DBDir)
	require.Equal(t, 4096, cfg.BlockSize)
	require.Equal(t, 8, cfg.BufferPool)
	require.Equal(t, "coredb.log", cfg.LogFile)
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coredb.ini")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadOverlaysEngineSection(t *testing.T) {
	path := writeConfig(t, `
[engine]
db_dir = /tmp/mydb
block_size = 8192
buffer_pool = 16
log_file = custom.log
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/mydb", cfg.DBDir)
	require.Equal(t, 8192, cfg.BlockSize)
	require.Equal(t, 16, cfg.BufferPool)
	require.Equal(t, "custom.log", cfg.LogFile)
}

func TestLoadRejectsBlockSizeBelowMinimum(t *testing.T) {
	path := writeConfig(t, "[engine]\nblock_size = 32\n")

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoadRejectsZeroBufferPool(t *testing.T) {
	path := writeConfig(t, "[engine]\nbuffer_pool = 0\n")

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.ini"))
	require.Error(t, err)
}
