package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halolab/seisbatch/internal/config"
)

func TestNew_FileSink(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.ColorMode = config.ColorNever
	cfg.LogFile = filepath.Join(dir, "logs", "merge.log")

	log, closer, err := New(&cfg)
	require.NoError(t, err)

	log.Info().Str("stage", "merge").Msg("started")
	require.NoError(t, closer())

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "started")
	assert.Contains(t, string(data), "merge")
}

func TestNew_NoFile(t *testing.T) {
	cfg := config.Default()
	cfg.ColorMode = config.ColorNever

	_, closer, err := New(&cfg)
	require.NoError(t, err)
	assert.NoError(t, closer())
}

func TestNew_VerboseLevel(t *testing.T) {
	cfg := config.Default()
	cfg.ColorMode = config.ColorNever
	cfg.Verbose = true

	log, closer, err := New(&cfg)
	require.NoError(t, err)
	defer closer()

	assert.True(t, log.Debug().Enabled())
}
