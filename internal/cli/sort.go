package cli

import (
	"github.com/spf13/cobra"

	"github.com/halolab/seisbatch/internal/config"
	"github.com/halolab/seisbatch/internal/stage"
)

func newSortCmd(opts *rootOptions, code *int) *cobra.Command {
	var pattern string

	cmd := &cobra.Command{
		Use:   "sort <source> <dest>",
		Short: "Sort raw waveform files into the net/sta/year/day archive layout",
		Long: `Sort copies raw waveform files whose names follow the
NET.STA.LOC.CHAN.QUAL.YEAR.DAY[.HHMMSS] convention into the canonical
archive tree under <dest>. Existing targets are skipped, so re-running
after an interruption picks up where the last run stopped.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return fail(err)
			}
			cfg.SourceDir = config.NormalizeDirArg(args[0])
			cfg.DestDir = config.NormalizeDirArg(args[1])
			if cmd.Flags().Changed("pattern") {
				cfg.Pattern = pattern
			}
			return runStage(cmd, cfg, code, false, false, stage.Sort)
		},
	}

	cmd.Flags().StringVarP(&pattern, "pattern", "p", "*.sac", "glob pattern for source files")
	return cmd
}
