package stage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/halolab/seisbatch/internal/catalog"
	"github.com/halolab/seisbatch/internal/config"
	"github.com/halolab/seisbatch/internal/pather"
	"github.com/halolab/seisbatch/internal/run"
	"github.com/halolab/seisbatch/internal/wave"
)

// cutUnit is one event-station pair, the work unit of the cut stage.
type cutUnit struct {
	event   catalog.Event
	station string
}

func (u cutUnit) ident() string {
	return u.event.ID() + "/" + u.station
}

// Cut extracts the event time window from every station's day files for
// every catalog event. Fragments covering the window are merged, trimmed to
// [origin, origin+window], stamped with the event geometry, and written to
// one directory per event. A station with no covering day files is no-data.
func Cut(ctx context.Context, log zerolog.Logger, cfg *config.Config) (*run.Summary, error) {
	events, err := catalog.LoadEvents(cfg.EventsFile)
	if err != nil {
		return nil, err
	}
	stationDirs, err := pather.SubDirs(cfg.SourceDir)
	if err != nil {
		return nil, err
	}

	units := make([]cutUnit, 0, len(events)*len(stationDirs))
	for _, ev := range events {
		for _, dir := range stationDirs {
			units = append(units, cutUnit{event: ev, station: filepath.Base(dir)})
		}
	}
	log.Info().Int("events", len(events)).Int("stations", len(stationDirs)).
		Int("window_s", cfg.TimeWindow).Msg("cutting events")

	window := time.Duration(cfg.TimeWindow) * time.Second
	fn := func(ctx context.Context, u cutUnit) []run.Outcome {
		return []run.Outcome{cutOne(ctx, u, cfg, window)}
	}
	return execute(ctx, log, cfg.Workers, len(units), cfg.DestDir, units, cutUnit.ident, fn), nil
}

func cutOne(ctx context.Context, u cutUnit, cfg *config.Config, window time.Duration) run.Outcome {
	unit := u.ident()
	if o, done := cancelled(ctx, unit); done {
		return o
	}

	start := u.event.Time
	end := start.Add(window)

	files, err := coveringFiles(cfg.SourceDir, u.station, start, end)
	if err != nil {
		return run.Fail(unit, err)
	}
	if len(files) == 0 {
		return run.Empty(unit)
	}

	channels := make(map[string]wave.Stream)
	for _, src := range files {
		tr, err := wave.ReadSAC(src)
		if err != nil {
			return run.Fail(unit, err)
		}
		if tr.Station != u.station {
			return run.Failf(unit, "station mismatch in %s: header says %q", src, tr.Station)
		}
		channels[tr.Channel] = append(channels[tr.Channel], tr)
	}

	eventDir := filepath.Join(cfg.DestDir, u.event.ID())
	if err := os.MkdirAll(eventDir, 0o755); err != nil {
		return run.Fail(unit, err)
	}

	wrote := 0
	for channel, frags := range channels {
		merged, err := wave.Merge(frags)
		if err != nil {
			return run.Fail(unit, err)
		}
		if err := merged.Trim(start, end); err != nil {
			continue // channel does not cover the window
		}
		merged.EvLa, merged.EvLo = u.event.Latitude, u.event.Longitude
		merged.EvDp = u.event.Depth
		merged.Mag = u.event.Magnitude

		name := fmt.Sprintf("%s.%s.%s.sac", u.event.ID(), u.station, channel)
		if err := wave.WriteSAC(filepath.Join(eventDir, name), merged); err != nil {
			return run.Fail(unit, err)
		}
		wrote++
	}
	if wrote == 0 {
		return run.Empty(unit)
	}
	return run.OK(unit)
}

// coveringFiles returns the station's day files whose julian day falls
// inside the event window, following the sta/year/day layout.
func coveringFiles(base, station string, start, end time.Time) ([]string, error) {
	var files []string
	for day := start.Truncate(24 * time.Hour); !day.After(end); day = day.AddDate(0, 0, 1) {
		dir := filepath.Join(base, station,
			fmt.Sprintf("%04d", day.Year()), fmt.Sprintf("%03d", day.YearDay()))
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		pattern := fmt.Sprintf("*.%d.%03d.*.sac", day.Year(), day.YearDay())
		matched, err := pather.Glob(dir, []string{pattern}, pather.GlobOptions{})
		if err != nil {
			return nil, err
		}
		files = append(files, matched...)
	}
	return files, nil
}
