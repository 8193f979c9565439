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

func writeEventsCSV(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.csv")
	content := "time,latitude,longitude,depth,mag\n" + rows
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCut_EventWindow(t *testing.T) {
	cfg := testConfig(t)
	cfg.TimeWindow = 3600
	cfg.EventsFile = writeEventsCSV(t, "2024-01-01T01:00:00Z,-40.9,175.1,33,5.4\n")

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	writeDayTrace(t, filepath.Join(cfg.SourceDir, "NZ37", "2024", "001",
		"NZ.NZ37..BHZ.D.2024.001.merged.sac"), "NZ37", "BHZ", day, 1, 7200)

	s, err := Cut(context.Background(), nop(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Total)
	assert.Equal(t, 1, s.Success)

	out := filepath.Join(cfg.DestDir, "20240101010000", "20240101010000.NZ37.BHZ.sac")
	tr, err := wave.ReadSAC(out)
	require.NoError(t, err)

	assert.True(t, tr.Start.Equal(day.Add(time.Hour)), "start %v", tr.Start)
	assert.Len(t, tr.Data, 3600)
	assert.InDelta(t, -40.9, tr.EvLa, 1e-4)
	assert.InDelta(t, 5.4, tr.Mag, 1e-5)
}

func TestCut_NoCoverageIsNoData(t *testing.T) {
	cfg := testConfig(t)
	cfg.EventsFile = writeEventsCSV(t, "2025-06-01T00:00:00Z,1,2,3,4\n")

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	writeDayTrace(t, filepath.Join(cfg.SourceDir, "NZ37", "2024", "001",
		"NZ.NZ37..BHZ.D.2024.001.merged.sac"), "NZ37", "BHZ", day, 1, 100)

	s, err := Cut(context.Background(), nop(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, s.NoData)
	assert.Equal(t, 0, s.Failed)
}

func TestCut_StationHeaderMismatchFails(t *testing.T) {
	cfg := testConfig(t)
	cfg.TimeWindow = 3600
	cfg.EventsFile = writeEventsCSV(t, "2024-01-01T01:00:00Z,1,2,3,4\n")

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// Header says NZ99 but the file sits under station NZ37.
	writeDayTrace(t, filepath.Join(cfg.SourceDir, "NZ37", "2024", "001",
		"NZ.NZ37..BHZ.D.2024.001.merged.sac"), "NZ99", "BHZ", day, 1, 7200)

	s, err := Cut(context.Background(), nop(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Failed)
	require.Len(t, s.Diags, 1)
	assert.Contains(t, s.Diags[0], "station mismatch")
}

func TestCut_SpansDayBoundary(t *testing.T) {
	cfg := testConfig(t)
	cfg.TimeWindow = 7200
	cfg.EventsFile = writeEventsCSV(t, "2024-01-01T23:00:00Z,1,2,3,4\n")

	day1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	writeDayTrace(t, filepath.Join(cfg.SourceDir, "NZ37", "2024", "001",
		"NZ.NZ37..BHZ.D.2024.001.merged.sac"), "NZ37", "BHZ", day1, 1, 86400)
	writeDayTrace(t, filepath.Join(cfg.SourceDir, "NZ37", "2024", "002",
		"NZ.NZ37..BHZ.D.2024.002.merged.sac"), "NZ37", "BHZ", day2, 1, 86400)

	s, err := Cut(context.Background(), nop(), cfg)
	require.NoError(t, err)
	require.Equal(t, 1, s.Success)

	tr, err := wave.ReadSAC(filepath.Join(cfg.DestDir, "20240101230000",
		"20240101230000.NZ37.BHZ.sac"))
	require.NoError(t, err)
	assert.True(t, tr.Start.Equal(day1.Add(23*time.Hour)))
	assert.Len(t, tr.Data, 7201)
}
