package stage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/halolab/seisbatch/internal/config"
	"github.com/halolab/seisbatch/internal/display"
	"github.com/halolab/seisbatch/internal/fdsn"
	"github.com/halolab/seisbatch/internal/pather"
	"github.com/halolab/seisbatch/internal/run"
)

// downloadUnit is one station-day fetch, the work unit of the download
// stage.
type downloadUnit struct {
	station string
	day     time.Time
}

func (u downloadUnit) ident() string {
	return u.station + "/" + u.day.Format("2006-01-02")
}

// Download fetches day-long miniSEED windows from an FDSN dataselect
// service into the canonical net/sta/year/day layout. A day directory that
// already holds data is skipped, so interrupted runs resume where they
// stopped. All workers share one rate limiter, so the configured request
// spacing holds run-wide.
func Download(ctx context.Context, log zerolog.Logger, cfg *config.Config) (*run.Summary, error) {
	if cfg.Network == "" {
		return nil, errors.New("download requires a network code")
	}
	stations := splitList(cfg.Station)
	if len(stations) == 0 {
		return nil, errors.New("download requires at least one station code")
	}
	days, err := dayRange(cfg.StartDate, cfg.EndDate)
	if err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fdsn.DefaultBaseURL
	}
	client := fdsn.New(baseURL, cfg.RequestInterval)

	units := make([]downloadUnit, 0, len(stations)*len(days))
	for _, sta := range stations {
		for _, day := range days {
			units = append(units, downloadUnit{station: sta, day: day})
		}
	}
	log.Info().Int("stations", len(stations)).Int("days", len(days)).
		Str("base_url", baseURL).Msg("downloading day files")

	var fetched atomic.Int64
	fn := func(ctx context.Context, u downloadUnit) []run.Outcome {
		return []run.Outcome{downloadOne(ctx, client, u, cfg, &fetched)}
	}
	s := execute(ctx, log, cfg.Workers, len(units), cfg.DestDir, units, downloadUnit.ident, fn)
	log.Info().Str("volume", display.FormatBytes(fetched.Load())).Msg("fetched")
	return s, nil
}

func downloadOne(ctx context.Context, client *fdsn.Client, u downloadUnit,
	cfg *config.Config, fetched *atomic.Int64) run.Outcome {
	unit := u.ident()
	if o, done := cancelled(ctx, unit); done {
		return o
	}

	meta := pather.Meta{
		Network:  cfg.Network,
		Station:  u.station,
		Location: wildcardless(cfg.Location),
		Channel:  wildcardless(cfg.Channel),
		Quality:  "D",
		Year:     u.day.Year(),
		Day:      u.day.YearDay(),
	}

	dayDir := meta.Dir(cfg.DestDir)
	if entries, err := os.ReadDir(dayDir); err == nil && len(entries) > 0 {
		return run.Skip(unit)
	}

	start, end := fdsn.DayWindow(u.day)
	data, err := client.FetchWindow(ctx, fdsn.Request{
		Network:  cfg.Network,
		Station:  u.station,
		Location: cfg.Location,
		Channel:  cfg.Channel,
		Start:    start,
		End:      end,
	})
	if errors.Is(err, fdsn.ErrNoData) {
		return run.Empty(unit)
	}
	if err != nil {
		return run.Fail(unit, err)
	}

	dest := filepath.Join(dayDir, meta.Filename("mseed"))
	if err := mkdirFor(dest); err != nil {
		return run.Fail(unit, err)
	}
	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return run.Fail(unit, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return run.Fail(unit, err)
	}
	fetched.Add(int64(len(data)))
	return run.OK(unit)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" && part != "*" {
			out = append(out, part)
		}
	}
	return out
}

// wildcardless strips FDSN wildcards from a code so it can appear in a
// filename field.
func wildcardless(code string) string {
	return strings.Map(func(r rune) rune {
		if r == '*' || r == '?' {
			return -1
		}
		return r
	}, code)
}

const dateLayout = "2006-01-02"

// dayRange expands [start, end) into UTC days. end accepts "now", which
// resolves to the start of the current UTC day, so yesterday is the last
// day fetched and partial days are never requested.
func dayRange(startDate, endDate string) ([]time.Time, error) {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return nil, fmt.Errorf("start date: %w", err)
	}

	var end time.Time
	if strings.EqualFold(endDate, "now") {
		end = time.Now().UTC().Truncate(24 * time.Hour)
	} else {
		if end, err = time.Parse(dateLayout, endDate); err != nil {
			return nil, fmt.Errorf("end date: %w", err)
		}
	}

	if !start.Before(end) {
		return nil, errors.New("start date must be before end date")
	}

	var days []time.Time
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		days = append(days, day)
	}
	return days, nil
}
