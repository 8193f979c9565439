package cli

import (
	"github.com/spf13/cobra"

	"github.com/halolab/seisbatch/internal/config"
	"github.com/halolab/seisbatch/internal/stage"
)

func newFormatCmd(opts *rootOptions, code *int) *cobra.Command {
	var (
		eventsFile  string
		stationFile string
		pattern     string
	)

	cmd := &cobra.Command{
		Use:   "format <source> <dest>",
		Short: "Stamp event and station metadata into SAC headers",
		Long: `Format walks event directories under <source>, rewrites the SAC
headers of every trace with station coordinates and event origin data
from the catalogs, and writes the result under <dest>. An event
directory that is missing from the catalog aborts the run before any
file is touched.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return fail(err)
			}
			cfg.SourceDir = config.NormalizeDirArg(args[0])
			cfg.DestDir = config.NormalizeDirArg(args[1])
			if cmd.Flags().Changed("events") {
				cfg.EventsFile = eventsFile
			}
			if cmd.Flags().Changed("stations") {
				cfg.StationFile = stationFile
			}
			if cmd.Flags().Changed("pattern") {
				cfg.Pattern = pattern
			}
			return runStage(cmd, cfg, code, false, false, stage.Format)
		},
	}

	cmd.Flags().StringVar(&eventsFile, "events", "", "event catalog CSV (time,latitude,longitude,depth,mag)")
	cmd.Flags().StringVar(&stationFile, "stations", "", "station metadata CSV (station,latitude,longitude[,elevation,depth])")
	cmd.Flags().StringVarP(&pattern, "pattern", "p", "*.sac", "glob pattern for trace files")
	return cmd
}
