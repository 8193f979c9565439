package stage

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/halolab/seisbatch/internal/catalog"
	"github.com/halolab/seisbatch/internal/config"
	"github.com/halolab/seisbatch/internal/pather"
	"github.com/halolab/seisbatch/internal/pool"
	"github.com/halolab/seisbatch/internal/run"
	"github.com/halolab/seisbatch/internal/wave"
)

// defaultLocation fills an empty location code in formatted headers.
const defaultLocation = "10"

// Format rewrites SAC headers in per-event directories from the event
// catalog and station table: station coordinates, event coordinates, depth
// and magnitude. Units are event directories named by event ID; a directory
// without a catalog entry is a discovery error, not a unit failure.
func Format(ctx context.Context, log zerolog.Logger, cfg *config.Config) (*run.Summary, error) {
	events, err := catalog.LoadEvents(cfg.EventsFile)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]catalog.Event, len(events))
	for _, ev := range events {
		byID[ev.ID()] = ev
	}

	stations, err := catalog.LoadStations(cfg.StationFile)
	if err != nil {
		return nil, err
	}

	eventDirs, err := pather.SubDirs(cfg.SourceDir)
	if err != nil {
		return nil, err
	}
	for _, dir := range eventDirs {
		if _, ok := byID[filepath.Base(dir)]; !ok {
			return nil, fmt.Errorf("no catalog entry for event directory %s", dir)
		}
	}
	log.Info().Int("events", len(eventDirs)).Int("stations", len(stations)).Msg("formatting headers")

	fn := func(ctx context.Context, dir string) []run.Outcome {
		return []run.Outcome{formatEvent(ctx, dir, cfg, byID[filepath.Base(dir)], stations)}
	}
	return execute(ctx, log, cfg.Workers, len(eventDirs), cfg.DestDir, eventDirs, pool.Idents, fn), nil
}

func formatEvent(ctx context.Context, dir string, cfg *config.Config,
	event catalog.Event, stations map[string]catalog.Station) run.Outcome {

	unit := filepath.Base(dir)
	if o, done := cancelled(ctx, unit); done {
		return o
	}

	files, err := pather.Glob(dir, []string{cfg.Pattern}, pather.GlobOptions{})
	if err != nil {
		return run.Fail(unit, err)
	}
	if len(files) == 0 {
		return run.Empty(unit)
	}

	destDir := filepath.Join(cfg.DestDir, unit)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return run.Fail(unit, err)
	}

	for _, src := range files {
		if err := formatFile(src, destDir, unit, event, stations); err != nil {
			return run.Fail(unit, err)
		}
	}
	return run.OK(unit)
}

// formatFile rewrites one event.station.channel.sac file into the
// destination event directory. A failed write never leaves a partial file.
func formatFile(src, destDir, eventID string, event catalog.Event,
	stations map[string]catalog.Station) error {

	name := filepath.Base(src)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.Split(stem, ".")
	if len(parts) < 3 {
		return fmt.Errorf("%s: expected event.station.channel name", name)
	}
	stationName, channel := parts[1], parts[2]

	sta, ok := stations[stationName]
	if !ok {
		return fmt.Errorf("%s: no station table entry for %q", name, stationName)
	}

	tr, err := wave.ReadSAC(src)
	if err != nil {
		return err
	}

	tr.Station = stationName
	tr.Channel = channel
	if tr.Location == "" {
		tr.Location = defaultLocation
	}
	tr.StLa, tr.StLo = sta.Latitude, sta.Longitude
	if !math.IsNaN(sta.Elevation) {
		tr.StEl = sta.Elevation
	}
	if !math.IsNaN(sta.Depth) {
		tr.StDp = sta.Depth
	}
	tr.EvLa, tr.EvLo = event.Latitude, event.Longitude
	tr.EvDp = event.Depth
	tr.Mag = event.Magnitude

	dest := filepath.Join(destDir, fmt.Sprintf("%s.%s.%s.sac", eventID, stationName, channel))
	if err := wave.WriteSAC(dest, tr); err != nil {
		os.Remove(dest)
		return err
	}
	return nil
}
