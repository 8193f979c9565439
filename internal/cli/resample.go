package cli

import (
	"github.com/spf13/cobra"

	"github.com/halolab/seisbatch/internal/config"
	"github.com/halolab/seisbatch/internal/stage"
)

func newResampleCmd(opts *rootOptions, code *int) *cobra.Command {
	var (
		rate         float64
		method       string
		pattern      string
		removeSource bool
	)

	cmd := &cobra.Command{
		Use:   "resample <source>",
		Short: "Resample archived traces to a target rate",
		Long: `Resample converts every trace in the archive to the target sampling
rate, writing output next to the input with a .<rate>Hz suffix. The
primary method resamples in-process; the sac method drives the
external SAC tool's interpolate command.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return fail(err)
			}
			cfg.SourceDir = config.NormalizeDirArg(args[0])
			if cmd.Flags().Changed("rate") {
				cfg.ResampleRate = rate
			}
			if cmd.Flags().Changed("method") {
				cfg.Method = config.Method(method)
			}
			if cmd.Flags().Changed("pattern") {
				cfg.Pattern = pattern
			}
			if cmd.Flags().Changed("remove-source") {
				cfg.RemoveSource = removeSource
			}
			needSAC := cfg.Method == config.MethodSAC
			return runStage(cmd, cfg, code, needSAC, false, stage.Resample)
		},
	}

	cmd.Flags().Float64Var(&rate, "rate", 0, "target sampling rate in Hz")
	cmd.Flags().StringVar(&method, "method", string(config.MethodPrimary), "processing backend: primary or sac")
	cmd.Flags().StringVarP(&pattern, "pattern", "p", "*.sac", "glob pattern for trace files")
	cmd.Flags().BoolVar(&removeSource, "remove-source", false, "delete inputs after a successful write")
	return cmd
}
