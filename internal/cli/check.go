package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/halolab/seisbatch/internal/check"
	"github.com/halolab/seisbatch/internal/display"
	"github.com/halolab/seisbatch/internal/logging"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report tool availability and environment readiness",
		Long: `Check reports whether the external sac and mseed2sac tools can be
resolved, where the bin directory points, and whether the working
directory is writable. It is informational and always exits zero.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return fail(err)
			}
			log, closeLog, err := logging.New(cfg)
			if err != nil {
				return fail(err)
			}
			defer closeLog()

			display.PrintBanner(os.Stdout, logging.ColorEnabled(cfg.ColorMode))
			check.RunCheck(cfg.BinDir, log)
			return nil
		},
	}
	return cmd
}
