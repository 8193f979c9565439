package cli

import (
	"github.com/spf13/cobra"

	"github.com/halolab/seisbatch/internal/config"
	"github.com/halolab/seisbatch/internal/stage"
)

func newMergeCmd(opts *rootOptions, code *int) *cobra.Command {
	var (
		pattern      string
		removeSource bool
	)

	cmd := &cobra.Command{
		Use:   "merge <source>",
		Short: "Merge per-day waveform fragments channel by channel",
		Long: `Merge walks the leaf day directories of an archive and combines the
SAC fragments of each channel into one continuous trace, interpolating
gaps and letting later fragments win overlaps. Output is written next
to the fragments with a .merged suffix.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return fail(err)
			}
			cfg.SourceDir = config.NormalizeDirArg(args[0])
			if cmd.Flags().Changed("pattern") {
				cfg.Pattern = pattern
			}
			if cmd.Flags().Changed("remove-source") {
				cfg.RemoveSource = removeSource
			}
			return runStage(cmd, cfg, code, false, false, stage.Merge)
		},
	}

	cmd.Flags().StringVarP(&pattern, "pattern", "p", "*.sac", "glob pattern for fragment files")
	cmd.Flags().BoolVar(&removeSource, "remove-source", false, "delete fragments after a successful merge")
	return cmd
}
