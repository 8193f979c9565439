// Package cli provides the seisbatch command tree: one subcommand per
// pipeline stage, shared persistent flags, and the startup phases every
// stage goes through (configuration, logging, path checks, tool checks,
// signal-cancelled execution).
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/halolab/seisbatch/internal/check"
	"github.com/halolab/seisbatch/internal/config"
	"github.com/halolab/seisbatch/internal/display"
	"github.com/halolab/seisbatch/internal/logging"
	"github.com/halolab/seisbatch/internal/run"
)

// Version is set at build time.
var Version = "0.3.0"

// rootOptions carries the persistent flag values shared by every stage
// command. They overlay the defaults and the optional stage file, so a
// flag the user did not touch never masks a configured value.
type rootOptions struct {
	configFile string
	logFile    string
	verbose    bool
	workers    int
	batchSize  int
	color      string
}

// Execute runs the CLI and returns the process exit code: 0 for a clean
// run, 1 for fatal errors or any failed unit.
func Execute() int {
	var code int
	root := newRootCmd(&code)
	if err := root.Execute(); err != nil {
		return 1
	}
	return code
}

func newRootCmd(code *int) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:     "seisbatch",
		Short:   "Batch processing for seismic waveform archives",
		Long: `seisbatch runs batch transformations over seismic waveform archives:
sorting raw files into the net/sta/year/day layout, converting miniSEED,
merging day fragments, removing instrument responses, resampling, cutting
event windows, correcting clock drift, and downloading from FDSN services.

Stages process independent units in parallel; per-unit failures are
collected into an error artifact instead of stopping the run.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configFile, "config", "c", "", "YAML stage configuration file")
	pf.StringVar(&opts.logFile, "log", "", "tee logs to this file")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	pf.IntVar(&opts.workers, "workers", 0, "maximum parallel workers")
	pf.IntVar(&opts.batchSize, "batch-size", 0, "files per dispatch batch")
	pf.StringVar(&opts.color, "color", "", "console color: auto, always or never")

	cmd.AddCommand(
		newSortCmd(opts, code),
		newConvertCmd(opts, code),
		newMergeCmd(opts, code),
		newFormatCmd(opts, code),
		newDeconvCmd(opts, code),
		newResampleCmd(opts, code),
		newCutCmd(opts, code),
		newDriftCmd(opts, code),
		newDownloadCmd(opts, code),
		newCheckCmd(opts),
	)

	cmd.SetErr(os.Stderr)
	return cmd
}

// loadConfig builds the stage configuration: defaults, environment
// settings, optional stage file, then persistent flag overrides.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg := config.Default()

	settings, err := config.LoadSettings()
	if err != nil {
		return nil, err
	}
	cfg.BinDir = settings.BinDir

	if opts.configFile != "" {
		if err := config.LoadFile(opts.configFile, &cfg); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = opts.workers
	}
	if flags.Changed("batch-size") {
		cfg.BatchSize = opts.batchSize
	}
	if flags.Changed("color") {
		cfg.ColorMode = config.ColorMode(opts.color)
	}
	if opts.logFile != "" {
		cfg.LogFile = opts.logFile
	}
	cfg.Verbose = cfg.Verbose || opts.verbose

	return &cfg, nil
}

// stageFunc is the shape every stage entry point shares.
type stageFunc func(ctx context.Context, log zerolog.Logger, cfg *config.Config) (*run.Summary, error)

// runStage executes one stage through the shared phases: validate, build
// the logger, check paths and external tools, then run under a
// signal-cancelled context. Any failed unit flips the exit code to 1.
func runStage(cmd *cobra.Command, cfg *config.Config, code *int,
	needSAC, needMseed2sac bool, fn stageFunc) error {

	if err := cfg.Validate(); err != nil {
		return fail(err)
	}

	log, closeLog, err := logging.New(cfg)
	if err != nil {
		return fail(err)
	}
	defer closeLog()

	display.PrintBanner(os.Stdout, logging.ColorEnabled(cfg.ColorMode))

	if err := checkPaths(cfg); err != nil {
		return fail(err)
	}
	if err := check.CheckDeps(cfg.BinDir, needSAC, needMseed2sac); err != nil {
		return fail(err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := fn(ctx, log, cfg)
	if err != nil {
		log.Error().Err(err).Msg("stage aborted")
		return fail(err)
	}

	log.Info().Str("elapsed", display.FormatDuration(s.Elapsed())).
		Str("result", s.String()).Msg("done")
	if !s.Clean() {
		*code = 1
	}
	return nil
}

// checkPaths rejects a destination nested inside the source, which would
// make a stage rediscover its own output.
func checkPaths(cfg *config.Config) error {
	if cfg.SourceDir == "" || cfg.DestDir == "" {
		return nil
	}
	src, err := resolvedAbs(cfg.SourceDir)
	if err != nil {
		return err
	}
	dest, err := resolvedAbs(cfg.DestDir)
	if err != nil {
		return err
	}
	return cfg.ValidatePaths(src, dest)
}

func resolvedAbs(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	// The destination may not exist yet; resolve what is resolvable.
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

func fail(err error) error {
	fmt.Fprintln(os.Stderr, "error:", err)
	return err
}
