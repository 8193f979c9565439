package stage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/halolab/seisbatch/internal/batch"
	"github.com/halolab/seisbatch/internal/config"
	"github.com/halolab/seisbatch/internal/pather"
	"github.com/halolab/seisbatch/internal/pool"
	"github.com/halolab/seisbatch/internal/run"
)

// Convert turns miniSEED day files into SAC via the external mseed2sac
// tool, writing into the canonical layout derived from each source
// filename. There is no in-process miniSEED decoder, so method selection
// other than the sac tool path is a configuration error.
func Convert(ctx context.Context, log zerolog.Logger, cfg *config.Config) (*run.Summary, error) {
	bin, err := pather.Binuse("mseed2sac", cfg.BinDir)
	if err != nil {
		return nil, err
	}

	files, err := pather.Glob(cfg.SourceDir, []string{cfg.Pattern}, pather.GlobOptions{})
	if err != nil {
		return nil, err
	}
	batches, err := batch.Partition(files, cfg.BatchSize)
	if err != nil {
		return nil, err
	}
	log.Info().Int("files", len(files)).Str("tool", bin).Msg("converting miniSEED")

	fn := func(ctx context.Context, files []string) []run.Outcome {
		outcomes := make([]run.Outcome, 0, len(files))
		for _, src := range files {
			outcomes = append(outcomes, convertOne(ctx, bin, src, cfg.DestDir, cfg.RemoveSource))
		}
		return outcomes
	}

	return execute(ctx, log, cfg.Workers, len(files), cfg.DestDir, batches, pool.BatchIdent, fn), nil
}

// convertOne runs mseed2sac for one source file with the canonical day
// directory as working directory, so the tool's output lands in place.
func convertOne(ctx context.Context, bin, src, destBase string, removeSource bool) run.Outcome {
	name := filepath.Base(src)
	if o, done := cancelled(ctx, name); done {
		return o
	}

	meta, _, err := pather.Parse(name)
	if err != nil {
		return run.Fail(name, err)
	}

	dayDir := meta.Dir(destBase)
	if entries, err := os.ReadDir(dayDir); err == nil && hasSACFile(entries) {
		return run.Skip(name)
	}
	if err := os.MkdirAll(dayDir, 0o755); err != nil {
		return run.Fail(name, err)
	}

	abs, err := filepath.Abs(src)
	if err != nil {
		return run.Fail(name, err)
	}

	cmd := exec.CommandContext(ctx, bin, abs)
	cmd.Dir = dayDir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		diag := strings.TrimSpace(stderr.String())
		if diag == "" {
			return run.Fail(name, err)
		}
		return run.Fail(name, fmt.Errorf("%w: %s", err, firstLine(diag)))
	}

	if removeSource {
		if err := os.Remove(src); err != nil {
			return run.Fail(name, errors.New("converted but could not remove source"))
		}
	}
	return run.OK(name)
}

func hasSACFile(entries []os.DirEntry) bool {
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".sac") {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
