package pather

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Meta identifies one trace file in the canonical archive layout. Quality is
// the SEED data-quality flag (usually "D"); TimeOfDay is the optional HHMMSS
// field carried by sub-day fragments. Location may be empty.
type Meta struct {
	Network   string
	Station   string
	Location  string
	Channel   string
	Quality   string
	Year      int
	Day       int // day of year, 1-366
	TimeOfDay string
}

// Dir returns the canonical day directory base/net/sta/yyyy/ddd.
func (m Meta) Dir(base string) string {
	return filepath.Join(base, m.Network, m.Station,
		fmt.Sprintf("%04d", m.Year), fmt.Sprintf("%03d", m.Day))
}

// Filename returns the canonical filename with the given extension (without
// dot): net.sta.loc.chan.quality.yyyy.ddd[.HHMMSS].ext
func (m Meta) Filename(ext string) string {
	fields := []string{
		m.Network, m.Station, m.Location, m.Channel, m.Quality,
		fmt.Sprintf("%04d", m.Year), fmt.Sprintf("%03d", m.Day),
	}
	if m.TimeOfDay != "" {
		fields = append(fields, m.TimeOfDay)
	}
	fields = append(fields, ext)
	return strings.Join(fields, ".")
}

// DayPath is the full canonical path for a trace file. The derivation is
// pure: identical metadata always yields a byte-identical path.
func DayPath(base string, m Meta, ext string) string {
	return filepath.Join(m.Dir(base), m.Filename(ext))
}

// Parse decomposes a canonical filename into its metadata and extension.
// It accepts both the day form (7 fields + ext) and the sub-day form with a
// trailing HHMMSS field (8 fields + ext).
func Parse(name string) (Meta, string, error) {
	parts := strings.Split(name, ".")
	if len(parts) != 8 && len(parts) != 9 {
		return Meta{}, "", fmt.Errorf("filename %q does not match net.sta.loc.chan.q.year.day[.time].ext", name)
	}

	year, err := strconv.Atoi(parts[5])
	if err != nil {
		return Meta{}, "", fmt.Errorf("filename %q: bad year %q", name, parts[5])
	}
	day, err := strconv.Atoi(parts[6])
	if err != nil {
		return Meta{}, "", fmt.Errorf("filename %q: bad day %q", name, parts[6])
	}

	m := Meta{
		Network:  parts[0],
		Station:  parts[1],
		Location: parts[2],
		Channel:  parts[3],
		Quality:  parts[4],
		Year:     year,
		Day:      day,
	}
	ext := parts[len(parts)-1]
	if len(parts) == 9 {
		m.TimeOfDay = parts[7]
	}
	return m, ext, nil
}

// InsertSuffix inserts a stage marker before the extension, so later stages
// can glob for exactly the output of a previous stage:
//
//	InsertSuffix("NZ.NZ37..BHZ.D.2024.001.sac", "merged")
//	  -> "NZ.NZ37..BHZ.D.2024.001.merged.sac"
func InsertSuffix(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "." + suffix + ext
}

// RateSuffix is the stage marker for resampled output, e.g. "1Hz" or "0.5Hz".
func RateSuffix(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64) + "Hz"
}
