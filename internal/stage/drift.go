package stage

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/halolab/seisbatch/internal/catalog"
	"github.com/halolab/seisbatch/internal/config"
	"github.com/halolab/seisbatch/internal/pather"
	"github.com/halolab/seisbatch/internal/pool"
	"github.com/halolab/seisbatch/internal/run"
	"github.com/halolab/seisbatch/internal/wave"
)

// Drift applies per-station clock-drift corrections from the drift table.
// Each trace whose start time falls inside the station's validity window is
// shifted earlier by rate * (trace midpoint - reference time) and written
// to the destination under the same relative path. Stations without a
// table entry are skipped. Units are station directories.
func Drift(ctx context.Context, log zerolog.Logger, cfg *config.Config) (*run.Summary, error) {
	drifts, err := catalog.LoadDrift(cfg.DriftFile)
	if err != nil {
		return nil, err
	}

	stationDirs, err := pather.SubDirs(cfg.SourceDir)
	if err != nil {
		return nil, err
	}
	log.Info().Int("stations", len(stationDirs)).Int("table_rows", len(drifts)).
		Msg("correcting clock drift")

	fn := func(ctx context.Context, dir string) []run.Outcome {
		return []run.Outcome{driftStation(ctx, dir, cfg, drifts)}
	}
	return execute(ctx, log, cfg.Workers, len(stationDirs), cfg.DestDir, stationDirs, pool.Idents, fn), nil
}

func driftStation(ctx context.Context, dir string, cfg *config.Config,
	drifts map[string]catalog.Drift) run.Outcome {

	station := filepath.Base(dir)
	if o, done := cancelled(ctx, station); done {
		return o
	}

	drift, ok := drifts[station]
	if !ok {
		return run.Skip(station)
	}

	files, err := pather.Glob(dir, []string{cfg.Pattern}, pather.GlobOptions{})
	if err != nil {
		return run.Fail(station, err)
	}
	if len(files) == 0 {
		return run.Empty(station)
	}

	corrected := 0
	for _, src := range files {
		if o, done := cancelled(ctx, station); done {
			return o
		}

		tr, err := wave.ReadSAC(src)
		if err != nil {
			return run.Fail(station, err)
		}
		correction, ok := drift.Correction(tr.Start, tr.End())
		if !ok {
			continue // outside the table's validity window
		}
		tr.Shift(-correction)

		rel, err := filepath.Rel(cfg.SourceDir, src)
		if err != nil {
			return run.Fail(station, err)
		}
		dest := filepath.Join(cfg.DestDir, rel)
		if err := writeTrace(dest, tr); err != nil {
			return run.Fail(station, err)
		}
		corrected++
	}
	if corrected == 0 {
		return run.Empty(station)
	}
	return run.OK(station)
}

func writeTrace(dest string, tr *wave.Trace) error {
	if err := mkdirFor(dest); err != nil {
		return err
	}
	return wave.WriteSAC(dest, tr)
}
