package stage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/halolab/seisbatch/internal/config"
	"github.com/halolab/seisbatch/internal/pather"
	"github.com/halolab/seisbatch/internal/pool"
	"github.com/halolab/seisbatch/internal/run"
	"github.com/halolab/seisbatch/internal/sactool"
	"github.com/halolab/seisbatch/internal/wave"
)

// DeconvSuffix marks the output of the deconvolution stage.
const DeconvSuffix = "deconv"

// Deconv removes the instrument response from every file in each station
// tree, writing displacement in nanometers with the deconv marker. The
// response is looked up per station in the response directory (SACPZ
// files). Units are station directories.
//
// With method "sac" the work is delegated to the external sac binary; the
// in-process resample option is not supported there and is ignored with a
// warning, matching the tool's capabilities.
func Deconv(ctx context.Context, log zerolog.Logger, cfg *config.Config) (*run.Summary, error) {
	var sacBin string
	if cfg.Method == config.MethodSAC {
		bin, err := pather.Binuse("sac", cfg.BinDir)
		if err != nil {
			return nil, err
		}
		sacBin = bin
		if cfg.ResampleRate > 0 {
			log.Warn().Msg("resample is not applied by the sac method")
		}
	}

	stationDirs, err := pather.SubDirs(cfg.SourceDir)
	if err != nil {
		return nil, err
	}
	log.Info().Int("stations", len(stationDirs)).Str("method", string(cfg.Method)).
		Msg("removing instrument response")

	fn := func(ctx context.Context, dir string) []run.Outcome {
		return []run.Outcome{deconvStation(ctx, dir, cfg, sacBin)}
	}
	return execute(ctx, log, cfg.Workers, len(stationDirs), cfg.SourceDir, stationDirs, pool.Idents, fn), nil
}

func deconvStation(ctx context.Context, dir string, cfg *config.Config, sacBin string) run.Outcome {
	station := filepath.Base(dir)
	if o, done := cancelled(ctx, station); done {
		return o
	}

	pzPath, err := responseFile(cfg.ResponseDir, station)
	if err != nil {
		return run.Fail(station, err)
	}

	files, err := stageInputs(dir, cfg.Pattern, DeconvSuffix)
	if err != nil {
		return run.Fail(station, err)
	}
	if len(files) == 0 {
		return run.Empty(station)
	}

	if cfg.Method == config.MethodSAC {
		return deconvStationSAC(ctx, station, sacBin, pzPath, files, cfg.RemoveSource)
	}

	pz, err := wave.ReadSACPZ(pzPath)
	if err != nil {
		return run.Fail(station, err)
	}

	for _, src := range files {
		if o, done := cancelled(ctx, station); done {
			return o
		}
		if err := deconvFile(src, pz, cfg.ResampleRate, cfg.RemoveSource); err != nil {
			return run.Fail(station, err)
		}
	}
	return run.OK(station)
}

func deconvFile(src string, pz *wave.PolesZeros, resampleRate float64, removeSource bool) error {
	tr, err := wave.ReadSAC(src)
	if err != nil {
		return err
	}
	if err := tr.RemoveResponse(pz, wave.DefaultPreFilter); err != nil {
		return err
	}
	if resampleRate > 0 {
		if err := tr.Resample(resampleRate); err != nil {
			return err
		}
	}
	if err := wave.WriteSAC(pather.InsertSuffix(src, DeconvSuffix), tr); err != nil {
		return err
	}
	if removeSource {
		return os.Remove(src)
	}
	return nil
}

func deconvStationSAC(ctx context.Context, station, bin, pzPath string,
	files []string, removeSource bool) run.Outcome {

	script := sactool.NewScript()
	for _, src := range files {
		script.Read(src).Preprocess().
			Transfer(pzPath,
				wave.DefaultPreFilter.F1, wave.DefaultPreFilter.F2,
				wave.DefaultPreFilter.F3, wave.DefaultPreFilter.F4)
		if removeSource {
			script.Add("w over")
		} else {
			script.Write(pather.InsertSuffix(src, DeconvSuffix))
		}
	}

	if res := sactool.Execute(ctx, bin, script); res.Err != nil {
		switch {
		case sactool.MatchBadResponse(res.Output):
			return run.Failf(station, "sac: transfer from %s failed: %v", pzPath, res.Err)
		case sactool.MatchFileMissing(res.Output):
			return run.Failf(station, "sac: missing input file: %v", res.Err)
		}
		return run.Fail(station, res.Err)
	}
	return run.OK(station)
}

// responseFile finds the single SACPZ file for a station in the response
// directory, matched by station code in the filename.
func responseFile(responseDir, station string) (string, error) {
	entries, err := os.ReadDir(responseDir)
	if err != nil {
		return "", fmt.Errorf("response dir: %w", err)
	}
	var matches []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		for _, part := range strings.FieldsFunc(e.Name(), func(r rune) bool {
			return r == '_' || r == '.'
		}) {
			if part == station {
				matches = append(matches, filepath.Join(responseDir, e.Name()))
				break
			}
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no response file for station %s in %s", station, responseDir)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("ambiguous response for station %s: %s", station, strings.Join(matches, ", "))
	}
}

// stageInputs lists the files in a station tree matching pattern, excluding
// output the stage itself produced on an earlier run.
func stageInputs(dir, pattern, suffix string) ([]string, error) {
	files, err := pather.Glob(dir, []string{pattern}, pather.GlobOptions{})
	if err != nil {
		return nil, err
	}
	kept := files[:0]
	for _, f := range files {
		if !strings.Contains(filepath.Base(f), "."+suffix+".") {
			kept = append(kept, f)
		}
	}
	return kept, nil
}
