package stage

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/halolab/seisbatch/internal/config"
	"github.com/halolab/seisbatch/internal/pather"
	"github.com/halolab/seisbatch/internal/pool"
	"github.com/halolab/seisbatch/internal/run"
	"github.com/halolab/seisbatch/internal/wave"
)

// MergedSuffix marks the output of the merge stage.
const MergedSuffix = "merged"

// Merge combines per-channel fragments in every leaf day directory into one
// continuous trace per channel, written next to the fragments with the
// merged marker. Units are leaf directories; an empty leaf is no-data, not
// a failure.
func Merge(ctx context.Context, log zerolog.Logger, cfg *config.Config) (*run.Summary, error) {
	leaves, err := pather.LeafDirs(cfg.SourceDir)
	if err != nil {
		return nil, err
	}
	log.Info().Int("day_dirs", len(leaves)).Str("source", cfg.SourceDir).Msg("merging fragments")

	fn := func(ctx context.Context, leaf string) []run.Outcome {
		return []run.Outcome{mergeLeaf(ctx, leaf, cfg.Pattern, cfg.RemoveSource)}
	}
	return execute(ctx, log, cfg.Workers, len(leaves), cfg.SourceDir, leaves, pool.Idents, fn), nil
}

func mergeLeaf(ctx context.Context, leaf, pattern string, removeSource bool) run.Outcome {
	if o, done := cancelled(ctx, leaf); done {
		return o
	}

	sources, err := leafFiles(leaf, pattern)
	if err != nil {
		return run.Fail(leaf, err)
	}
	if len(sources) == 0 {
		return run.Empty(leaf)
	}

	stream := make(wave.Stream, 0, len(sources))
	for _, src := range sources {
		tr, err := wave.ReadSAC(src)
		if err != nil {
			return run.Fail(leaf, err)
		}
		stream = append(stream, tr)
	}

	baseMeta, ext, err := pather.Parse(filepath.Base(sources[0]))
	if err != nil {
		return run.Fail(leaf, err)
	}
	baseMeta.TimeOfDay = ""

	wrote := 0
	for _, frags := range stream.ByChannel() {
		merged, err := wave.Merge(frags)
		if err != nil {
			return run.Fail(leaf, err)
		}

		// The target name comes from the merged trace itself: channel
		// groups are keyed on the full net.sta.loc.chan identity, so two
		// groups differing only in location must not share a filename.
		meta := baseMeta
		if merged.Network != "" {
			meta.Network = merged.Network
		}
		if merged.Station != "" {
			meta.Station = merged.Station
		}
		meta.Location = merged.Location
		meta.Channel = merged.Channel
		target := filepath.Join(leaf, meta.Filename(MergedSuffix+"."+ext))

		if _, err := os.Stat(target); err == nil {
			continue
		}
		if err := wave.WriteSAC(target, merged); err != nil {
			return run.Fail(leaf, err)
		}
		wrote++
	}
	if wrote == 0 {
		return run.Skip(leaf)
	}

	if removeSource {
		if err := removeAll(sources); err != nil {
			return run.Fail(leaf, err)
		}
	}
	return run.OK(leaf)
}

// leafFiles returns the non-merged files in one directory matching pattern,
// sorted. Previously merged output is never re-merged.
func leafFiles(dir, pattern string) ([]string, error) {
	files, err := pather.Glob(dir, []string{pattern}, pather.GlobOptions{})
	if err != nil {
		return nil, err
	}
	kept := files[:0]
	for _, f := range files {
		if !strings.Contains(filepath.Base(f), "."+MergedSuffix+".") {
			kept = append(kept, f)
		}
	}
	return kept, nil
}
