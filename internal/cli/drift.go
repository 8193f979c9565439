package cli

import (
	"github.com/spf13/cobra"

	"github.com/halolab/seisbatch/internal/config"
	"github.com/halolab/seisbatch/internal/stage"
)

func newDriftCmd(opts *rootOptions, code *int) *cobra.Command {
	var (
		driftFile string
		pattern   string
	)

	cmd := &cobra.Command{
		Use:   "drift <source> <dest>",
		Short: "Correct clock drift using a per-station drift table",
		Long: `Drift shifts each trace earlier by the drift accumulated at the
trace midpoint, computed from the station's entry in the drift table.
Traces outside a station's validity window and stations without an
entry pass through uncorrected. Output preserves the archive layout
under <dest>.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return fail(err)
			}
			cfg.SourceDir = config.NormalizeDirArg(args[0])
			cfg.DestDir = config.NormalizeDirArg(args[1])
			if cmd.Flags().Changed("drift-table") {
				cfg.DriftFile = driftFile
			}
			if cmd.Flags().Changed("pattern") {
				cfg.Pattern = pattern
			}
			return runStage(cmd, cfg, code, false, false, stage.Drift)
		},
	}

	cmd.Flags().StringVar(&driftFile, "drift-table", "", "drift table CSV (station,drift,drift_rate,starttime,endtime)")
	cmd.Flags().StringVarP(&pattern, "pattern", "p", "*.sac", "glob pattern for trace files")
	return cmd
}
