// Package stage implements the pipeline stages: discovery of work units,
// per-unit processing, and aggregation of outcomes into a run summary.
// Every stage follows the same skeleton: discover units, fan them out over
// a bounded pool, drain completion-order outcomes into a single summary,
// and persist failure diagnostics as an error artifact.
package stage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/halolab/seisbatch/internal/pool"
	"github.com/halolab/seisbatch/internal/run"
)

// execute fans items out over the pool and drains the outcomes. total is the
// number of units the outcomes describe (it differs from len(items) for
// batch-dispatch stages). The error artifact lands in artifactDir; failing
// to write it is logged, never fatal.
func execute[T any](ctx context.Context, log zerolog.Logger, workers, total int,
	artifactDir string, items []T, ident func(T) string, fn pool.Func[T]) *run.Summary {

	progress := run.NewProgress(log, progressEvery(total))
	s := run.Collect(total, pool.Map(ctx, workers, items, ident, fn), progress)

	log.Info().
		Str("run_id", s.RunID).
		Int("total", s.Total).
		Int("success", s.Success).
		Int("skipped", s.Skipped).
		Int("no_data", s.NoData).
		Int("failed", s.Failed).
		Dur("elapsed", s.Elapsed()).
		Msg("stage complete")

	path, err := run.WriteArtifact(artifactDir, s)
	if err != nil {
		log.Warn().Err(err).Msg("could not write error artifact")
	} else if path != "" {
		log.Warn().Str("path", path).Int("failed", s.Failed).Msg("failures recorded")
	}
	return s
}

func progressEvery(total int) int {
	every := total / 10
	if every < 1 {
		every = 1
	}
	return every
}

// cancelled converts a pending context cancellation into a failed outcome
// for the unit, so aborted units stay visible in the summary.
func cancelled(ctx context.Context, unit string) (run.Outcome, bool) {
	if err := ctx.Err(); err != nil {
		return run.Fail(unit, err), true
	}
	return run.Outcome{}, false
}

// copyFile copies src to dest, creating parent directories. The write goes
// through a temporary name so a partial copy never shadows the destination.
func copyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dest + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func mkdirFor(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// removeAll unlinks processed source files after a fully successful unit.
func removeAll(paths []string) error {
	for _, p := range paths {
		if err := os.Remove(p); err != nil {
			return fmt.Errorf("remove source %s: %w", p, err)
		}
	}
	return nil
}
