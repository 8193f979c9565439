package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/halolab/seisbatch/internal/config"
	"github.com/halolab/seisbatch/internal/stage"
)

func newDownloadCmd(opts *rootOptions, code *int) *cobra.Command {
	var (
		network  string
		stations string
		location string
		channel  string
		start    string
		end      string
		baseURL  string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "download <dest>",
		Short: "Download day-long miniSEED windows from an FDSN service",
		Long: `Download fetches one UTC day of miniSEED per station and day from an
FDSN dataselect endpoint, writing each window into the canonical
archive layout under <dest>. Day directories that already hold data
are skipped, so an interrupted run can be resumed. Requests share a
rate limit and are retried on transient failures.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return fail(err)
			}
			cfg.DestDir = config.NormalizeDirArg(args[0])
			flags := cmd.Flags()
			if flags.Changed("network") {
				cfg.Network = network
			}
			if flags.Changed("stations") {
				cfg.Station = stations
			}
			if flags.Changed("location") {
				cfg.Location = location
			}
			if flags.Changed("channel") {
				cfg.Channel = channel
			}
			if flags.Changed("start") {
				cfg.StartDate = start
			}
			if flags.Changed("end") {
				cfg.EndDate = end
			}
			if flags.Changed("base-url") {
				cfg.BaseURL = baseURL
			}
			if flags.Changed("interval") {
				cfg.RequestInterval = interval
			}
			return runStage(cmd, cfg, code, false, false, stage.Download)
		},
	}

	cmd.Flags().StringVar(&network, "network", "", "network code (required unless set in the stage file)")
	cmd.Flags().StringVar(&stations, "stations", "", "comma-separated station codes")
	cmd.Flags().StringVar(&location, "location", "*", "location code")
	cmd.Flags().StringVar(&channel, "channel", "*", "channel code, wildcards allowed")
	cmd.Flags().StringVar(&start, "start", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "now", "last day, YYYY-MM-DD or 'now'")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "FDSN dataselect endpoint (default IRIS)")
	cmd.Flags().DurationVar(&interval, "interval", 200*time.Millisecond, "minimum delay between requests")
	return cmd
}
