package stage

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/halolab/seisbatch/internal/config"
	"github.com/halolab/seisbatch/internal/wave"
)

func nop() zerolog.Logger { return zerolog.Nop() }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.SourceDir = filepath.Join(t.TempDir(), "src")
	cfg.DestDir = filepath.Join(t.TempDir(), "dest")
	cfg.Workers = 2
	require.NoError(t, os.MkdirAll(cfg.SourceDir, 0o755))
	return &cfg
}

// writeDayTrace writes a synthetic trace to path, creating parent dirs.
func writeDayTrace(t *testing.T, path, station, channel string, start time.Time, delta float64, n int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	tr := wave.NewTrace()
	tr.Network = "NZ"
	tr.Station = station
	tr.Channel = channel
	tr.Start = start
	tr.Delta = delta
	tr.Data = make([]float64, n)
	for i := range tr.Data {
		tr.Data[i] = math.Sin(2 * math.Pi * float64(i) / 50)
	}
	require.NoError(t, wave.WriteSAC(path, tr))
}

func writeGarbage(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("not a waveform"), 0o644))
}

// artifactPaths lists error artifacts written under dir.
func artifactPaths(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "errors_*.txt"))
	require.NoError(t, err)
	return matches
}
