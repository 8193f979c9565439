// Package catalog loads the CSV metadata tables the pipeline stages consume:
// event catalogs for cutting and header formatting, station tables for
// header formatting, and clock-drift tables for time correction.
package catalog

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"
)

// Event is one catalog row. ID is the origin time rendered as
// YYYYMMDDHHMMSS, which also names the event's output directory.
type Event struct {
	Time      time.Time
	Latitude  float64
	Longitude float64
	Depth     float64
	Magnitude float64
}

// ID returns the compact origin-time identifier used for event directories
// and cut file names.
func (e Event) ID() string {
	return e.Time.UTC().Format("20060102150405")
}

// Station is one station table row. Elevation and Depth are NaN when the
// column is absent or empty.
type Station struct {
	Name      string
	Latitude  float64
	Longitude float64
	Elevation float64
	Depth     float64
}

// Drift is one clock-drift table row. The correction for a trace is
// Rate * (trace midpoint - Start), applied only to traces starting inside
// [Start, End].
type Drift struct {
	Station string
	Drift   float64
	Rate    float64
	Start   time.Time
	End     time.Time
}

// Correction returns the clock correction for a trace spanning
// [start, end], or 0 with ok=false when the trace starts outside the
// drift row's validity window. A positive correction means the recorded
// clock ran fast, so the trace shifts earlier by that amount.
func (d Drift) Correction(start, end time.Time) (time.Duration, bool) {
	if start.Before(d.Start) || start.After(d.End) {
		return 0, false
	}
	mid := start.Add(end.Sub(start) / 2)
	secs := d.Rate * mid.Sub(d.Start).Seconds()
	return time.Duration(secs * float64(time.Second)), true
}

// Time column layouts accepted across the tables, tried in order.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// table reads a CSV file with a header row and returns the header index
// and the data rows. Required columns must all be present.
func table(path string, required ...string) (map[string]int, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read table %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read table %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("read table %s: empty file", path)
	}

	idx := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		idx[name] = i
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, nil, fmt.Errorf("read table %s: missing column %q", path, name)
		}
	}
	return idx, rows[1:], nil
}

func field(idx map[string]int, row []string, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func floatField(idx map[string]int, row []string, name string) (float64, error) {
	s := field(idx, row, name)
	if s == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s %q", name, s)
	}
	return v, nil
}

// LoadEvents reads an event catalog with columns time, latitude, longitude,
// depth, mag. Origin times are truncated to whole seconds so event IDs and
// cut windows align on sample boundaries.
func LoadEvents(path string) ([]Event, error) {
	idx, rows, err := table(path, "time", "latitude", "longitude", "depth", "mag")
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(rows))
	for n, row := range rows {
		t, err := parseTime(field(idx, row, "time"))
		if err != nil {
			return nil, fmt.Errorf("read table %s: row %d: %w", path, n+2, err)
		}
		ev := Event{Time: t.Truncate(time.Second)}
		for _, col := range []struct {
			name string
			dst  *float64
		}{
			{"latitude", &ev.Latitude},
			{"longitude", &ev.Longitude},
			{"depth", &ev.Depth},
			{"mag", &ev.Magnitude},
		} {
			v, err := floatField(idx, row, col.name)
			if err != nil || math.IsNaN(v) {
				return nil, fmt.Errorf("read table %s: row %d: bad %s", path, n+2, col.name)
			}
			*col.dst = v
		}
		events = append(events, ev)
	}
	return events, nil
}

// LoadStations reads a station table with columns station, latitude,
// longitude and optional elevation, depth. Keyed by station name.
func LoadStations(path string) (map[string]Station, error) {
	idx, rows, err := table(path, "station", "latitude", "longitude")
	if err != nil {
		return nil, err
	}

	stations := make(map[string]Station, len(rows))
	for n, row := range rows {
		sta := Station{Name: field(idx, row, "station")}
		if sta.Name == "" {
			return nil, fmt.Errorf("read table %s: row %d: empty station", path, n+2)
		}
		var perr error
		for _, col := range []struct {
			name     string
			dst      *float64
			optional bool
		}{
			{"latitude", &sta.Latitude, false},
			{"longitude", &sta.Longitude, false},
			{"elevation", &sta.Elevation, true},
			{"depth", &sta.Depth, true},
		} {
			v, err := floatField(idx, row, col.name)
			if err != nil || (math.IsNaN(v) && !col.optional) {
				perr = fmt.Errorf("read table %s: row %d: bad %s", path, n+2, col.name)
				break
			}
			*col.dst = v
		}
		if perr != nil {
			return nil, perr
		}
		stations[sta.Name] = sta
	}
	return stations, nil
}

// LoadDrift reads a clock-drift table with columns station, drift,
// drift_rate, starttime, endtime. Keyed by station name.
func LoadDrift(path string) (map[string]Drift, error) {
	idx, rows, err := table(path, "station", "drift", "drift_rate", "starttime", "endtime")
	if err != nil {
		return nil, err
	}

	drifts := make(map[string]Drift, len(rows))
	for n, row := range rows {
		d := Drift{Station: field(idx, row, "station")}
		if d.Station == "" {
			return nil, fmt.Errorf("read table %s: row %d: empty station", path, n+2)
		}
		var err error
		if d.Drift, err = floatField(idx, row, "drift"); err != nil || math.IsNaN(d.Drift) {
			return nil, fmt.Errorf("read table %s: row %d: bad drift", path, n+2)
		}
		if d.Rate, err = floatField(idx, row, "drift_rate"); err != nil || math.IsNaN(d.Rate) {
			return nil, fmt.Errorf("read table %s: row %d: bad drift_rate", path, n+2)
		}
		if d.Start, err = parseTime(field(idx, row, "starttime")); err != nil {
			return nil, fmt.Errorf("read table %s: row %d: %w", path, n+2, err)
		}
		if d.End, err = parseTime(field(idx, row, "endtime")); err != nil {
			return nil, fmt.Errorf("read table %s: row %d: %w", path, n+2, err)
		}
		drifts[d.Station] = d
	}
	return drifts, nil
}
