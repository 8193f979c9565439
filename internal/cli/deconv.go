package cli

import (
	"github.com/spf13/cobra"

	"github.com/halolab/seisbatch/internal/config"
	"github.com/halolab/seisbatch/internal/stage"
)

func newDeconvCmd(opts *rootOptions, code *int) *cobra.Command {
	var (
		responseDir  string
		method       string
		rate         float64
		pattern      string
		removeSource bool
	)

	cmd := &cobra.Command{
		Use:   "deconv <source>",
		Short: "Remove the instrument response from archived traces",
		Long: `Deconv removes the instrument response of every trace in the archive
using the station's SACPZ file, writing displacement output in
nanometers next to the input with a .deconv suffix. The primary method
runs in-process and can resample in the same pass; the sac method
drives the external SAC tool instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return fail(err)
			}
			cfg.SourceDir = config.NormalizeDirArg(args[0])
			if cmd.Flags().Changed("resp-dir") {
				cfg.ResponseDir = responseDir
			}
			if cmd.Flags().Changed("method") {
				cfg.Method = config.Method(method)
			}
			if cmd.Flags().Changed("rate") {
				cfg.ResampleRate = rate
			}
			if cmd.Flags().Changed("pattern") {
				cfg.Pattern = pattern
			}
			if cmd.Flags().Changed("remove-source") {
				cfg.RemoveSource = removeSource
			}
			needSAC := cfg.Method == config.MethodSAC
			return runStage(cmd, cfg, code, needSAC, false, stage.Deconv)
		},
	}

	cmd.Flags().StringVar(&responseDir, "resp-dir", "", "directory of SACPZ response files, one per station")
	cmd.Flags().StringVar(&method, "method", string(config.MethodPrimary), "processing backend: primary or sac")
	cmd.Flags().Float64Var(&rate, "rate", 0, "resample to this rate in Hz after deconvolution (primary method only)")
	cmd.Flags().StringVarP(&pattern, "pattern", "p", "*.sac", "glob pattern for trace files")
	cmd.Flags().BoolVar(&removeSource, "remove-source", false, "delete inputs after a successful write")
	return cmd
}
