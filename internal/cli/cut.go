package cli

import (
	"github.com/spf13/cobra"

	"github.com/halolab/seisbatch/internal/config"
	"github.com/halolab/seisbatch/internal/stage"
)

func newCutCmd(opts *rootOptions, code *int) *cobra.Command {
	var (
		eventsFile string
		window     int
	)

	cmd := &cobra.Command{
		Use:   "cut <source> <dest>",
		Short: "Cut event windows out of the continuous archive",
		Long: `Cut extracts, for every catalog event and every station in the
archive, a fixed-length window starting at the event origin. Day files
covering the window are merged on the fly, trimmed, stamped with the
event coordinates and written under <dest>/<event-id>/.`,
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
			if cmd.Flags().Changed("window") {
				cfg.TimeWindow = window
			}
			return runStage(cmd, cfg, code, false, false, stage.Cut)
		},
	}

	cmd.Flags().StringVar(&eventsFile, "events", "", "event catalog CSV (time,latitude,longitude,depth,mag)")
	cmd.Flags().IntVar(&window, "window", 10800, "window length in seconds from the event origin")
	return cmd
}
