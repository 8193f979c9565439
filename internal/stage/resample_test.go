package stage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halolab/seisbatch/internal/wave"
)

func TestResample_Station(t *testing.T) {
	cfg := testConfig(t)
	cfg.ResampleRate = 50
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	src := filepath.Join(cfg.SourceDir, "NZ37", "2024", "001", "NZ.NZ37..BHZ.D.2024.001.sac")
	writeDayTrace(t, src, "NZ37", "BHZ", day, 0.01, 1000)

	s, err := Resample(context.Background(), nop(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Success)

	out := filepath.Join(cfg.SourceDir, "NZ37", "2024", "001",
		"NZ.NZ37..BHZ.D.2024.001.50Hz.sac")
	tr, err := wave.ReadSAC(out)
	require.NoError(t, err)
	assert.Len(t, tr.Data, 500)
	assert.InDelta(t, 0.02, tr.Delta, 1e-9)

	_, statErr := os.Stat(src)
	assert.NoError(t, statErr, "source kept without remove_source")
}

func TestResample_RemoveSource(t *testing.T) {
	cfg := testConfig(t)
	cfg.ResampleRate = 50
	cfg.RemoveSource = true
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	src := filepath.Join(cfg.SourceDir, "NZ37", "2024", "001", "NZ.NZ37..BHZ.D.2024.001.sac")
	writeDayTrace(t, src, "NZ37", "BHZ", day, 0.01, 1000)

	s, err := Resample(context.Background(), nop(), cfg)
	require.NoError(t, err)
	require.Equal(t, 1, s.Success)

	_, statErr := os.Stat(src)
	assert.True(t, os.IsNotExist(statErr))
}

func TestResample_RequiresRate(t *testing.T) {
	cfg := testConfig(t)
	cfg.ResampleRate = 0

	_, err := Resample(context.Background(), nop(), cfg)
	assert.Error(t, err)
}

func TestResample_MalformedFileFailsStation(t *testing.T) {
	cfg := testConfig(t)
	cfg.ResampleRate = 50

	writeGarbage(t, filepath.Join(cfg.SourceDir, "NZ37", "2024", "001",
		"NZ.NZ37..BHZ.D.2024.001.sac"))

	s, err := Resample(context.Background(), nop(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Failed)
}
