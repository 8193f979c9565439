package stage

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/halolab/seisbatch/internal/config"
	"github.com/halolab/seisbatch/internal/pather"
	"github.com/halolab/seisbatch/internal/pool"
	"github.com/halolab/seisbatch/internal/run"
	"github.com/halolab/seisbatch/internal/sactool"
	"github.com/halolab/seisbatch/internal/wave"
)

// Resample changes the sampling rate of every file in each station tree,
// writing output with the rate marker (e.g. ".1Hz.sac"). Units are station
// directories.
func Resample(ctx context.Context, log zerolog.Logger, cfg *config.Config) (*run.Summary, error) {
	if cfg.ResampleRate <= 0 {
		return nil, errors.New("resample rate must be positive")
	}

	var sacBin string
	if cfg.Method == config.MethodSAC {
		bin, err := pather.Binuse("sac", cfg.BinDir)
		if err != nil {
			return nil, err
		}
		sacBin = bin
	}

	stationDirs, err := pather.SubDirs(cfg.SourceDir)
	if err != nil {
		return nil, err
	}
	log.Info().Int("stations", len(stationDirs)).Float64("rate_hz", cfg.ResampleRate).
		Str("method", string(cfg.Method)).Msg("resampling")

	suffix := pather.RateSuffix(cfg.ResampleRate)
	fn := func(ctx context.Context, dir string) []run.Outcome {
		return []run.Outcome{resampleStation(ctx, dir, cfg, sacBin, suffix)}
	}
	return execute(ctx, log, cfg.Workers, len(stationDirs), cfg.SourceDir, stationDirs, pool.Idents, fn), nil
}

func resampleStation(ctx context.Context, dir string, cfg *config.Config,
	sacBin, suffix string) run.Outcome {

	station := filepath.Base(dir)
	if o, done := cancelled(ctx, station); done {
		return o
	}

	files, err := stageInputs(dir, cfg.Pattern, suffix)
	if err != nil {
		return run.Fail(station, err)
	}
	if len(files) == 0 {
		return run.Empty(station)
	}

	if cfg.Method == config.MethodSAC {
		return resampleStationSAC(ctx, station, sacBin, files, cfg.ResampleRate, suffix, cfg.RemoveSource)
	}

	for _, src := range files {
		if o, done := cancelled(ctx, station); done {
			return o
		}
		if err := resampleFile(src, cfg.ResampleRate, suffix, cfg.RemoveSource); err != nil {
			return run.Fail(station, err)
		}
	}
	return run.OK(station)
}

func resampleFile(src string, rate float64, suffix string, removeSource bool) error {
	tr, err := wave.ReadSAC(src)
	if err != nil {
		return err
	}
	if err := tr.Resample(rate); err != nil {
		return err
	}
	if err := wave.WriteSAC(pather.InsertSuffix(src, suffix), tr); err != nil {
		return err
	}
	if removeSource {
		return os.Remove(src)
	}
	return nil
}

func resampleStationSAC(ctx context.Context, station, bin string, files []string,
	rate float64, suffix string, removeSource bool) run.Outcome {

	script := sactool.NewScript()
	for _, src := range files {
		script.Read(src).Interpolate(rate)
		if removeSource {
			script.Add("w over")
		} else {
			script.Write(pather.InsertSuffix(src, suffix))
		}
	}

	if res := sactool.Execute(ctx, bin, script); res.Err != nil {
		if sactool.MatchFileMissing(res.Output) {
			return run.Failf(station, "sac: missing input file: %v", res.Err)
		}
		return run.Fail(station, res.Err)
	}
	return run.OK(station)
}
