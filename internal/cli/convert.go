package cli

import (
	"github.com/spf13/cobra"

	"github.com/halolab/seisbatch/internal/config"
	"github.com/halolab/seisbatch/internal/stage"
)

func newConvertCmd(opts *rootOptions, code *int) *cobra.Command {
	var (
		pattern      string
		removeSource bool
	)

	cmd := &cobra.Command{
		Use:   "convert <source> <dest>",
		Short: "Convert miniSEED files to SAC with mseed2sac",
		Long: `Convert runs the external mseed2sac tool over every miniSEED file
under <source>, writing SAC output into the canonical day directory
under <dest>. Day directories that already contain SAC files are
skipped.`,
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
			if cmd.Flags().Changed("remove-source") {
				cfg.RemoveSource = removeSource
			}
			return runStage(cmd, cfg, code, false, true, stage.Convert)
		},
	}

	cmd.Flags().StringVarP(&pattern, "pattern", "p", "*.mseed", "glob pattern for source files")
	cmd.Flags().BoolVar(&removeSource, "remove-source", false, "delete each source file after a successful conversion")
	return cmd
}
