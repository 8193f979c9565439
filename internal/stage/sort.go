package stage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/halolab/seisbatch/internal/batch"
	"github.com/halolab/seisbatch/internal/config"
	"github.com/halolab/seisbatch/internal/pather"
	"github.com/halolab/seisbatch/internal/pool"
	"github.com/halolab/seisbatch/internal/run"
)

// Sort copies files whose names carry canonical metadata into the
// net/sta/year/day layout under the destination. Units are individual
// files, dispatched to workers in fixed-size batches.
func Sort(ctx context.Context, log zerolog.Logger, cfg *config.Config) (*run.Summary, error) {
	files, err := pather.Glob(cfg.SourceDir, []string{cfg.Pattern}, pather.GlobOptions{})
	if err != nil {
		return nil, err
	}
	batches, err := batch.Partition(files, cfg.BatchSize)
	if err != nil {
		return nil, err
	}
	log.Info().Int("files", len(files)).Int("batches", len(batches)).
		Str("source", cfg.SourceDir).Str("dest", cfg.DestDir).Msg("sorting")

	guard := pather.NewCollisionGuard()
	fn := func(ctx context.Context, files []string) []run.Outcome {
		outcomes := make([]run.Outcome, 0, len(files))
		for _, src := range files {
			outcomes = append(outcomes, sortOne(ctx, guard, src, cfg.DestDir))
		}
		return outcomes
	}

	return execute(ctx, log, cfg.Workers, len(files), cfg.DestDir, batches, pool.BatchIdent, fn), nil
}

func sortOne(ctx context.Context, guard *pather.CollisionGuard, src, destBase string) run.Outcome {
	name := filepath.Base(src)
	if o, done := cancelled(ctx, name); done {
		return o
	}

	meta, _, err := pather.Parse(name)
	if err != nil {
		return run.Fail(name, err)
	}

	dest := filepath.Join(meta.Dir(destBase), name)
	if conflict, ok := guard.Claim(src, dest); !ok {
		return run.Failf(name, "destination %s collides with %s under case folding", dest, conflict)
	}
	if _, err := os.Stat(dest); err == nil {
		return run.Skip(name)
	}
	if err := copyFile(src, dest); err != nil {
		return run.Fail(name, fmt.Errorf("copy: %w", err))
	}
	return run.OK(name)
}
