package wave

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// ErrNoOverlap is returned by Trim when a trace does not intersect the
// requested window.
var ErrNoOverlap = errors.New("trace does not overlap window")

// Stream is an ordered collection of traces, usually fragments of one
// channel-day read from disk.
type Stream []*Trace

// Sort orders traces by channel identity, then start time.
func (s Stream) Sort() {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].ID() != s[j].ID() {
			return s[i].ID() < s[j].ID()
		}
		return s[i].Start.Before(s[j].Start)
	})
}

// ByChannel groups the stream's traces by channel identity, preserving
// relative order within each group.
func (s Stream) ByChannel() map[string]Stream {
	groups := make(map[string]Stream)
	for _, tr := range s {
		groups[tr.ID()] = append(groups[tr.ID()], tr)
	}
	return groups
}

// Merge combines same-channel fragments into one continuous trace spanning
// from the earliest start to the latest end. Gaps between fragments are
// filled by linear interpolation between the bounding samples; overlapping
// samples are taken from the later fragment. All fragments must share the
// same channel identity and sample interval.
func Merge(frags Stream) (*Trace, error) {
	if len(frags) == 0 {
		return nil, errors.New("merge: empty stream")
	}
	if len(frags) == 1 {
		return frags[0], nil
	}

	first := frags[0]
	for _, tr := range frags[1:] {
		if tr.ID() != first.ID() {
			return nil, fmt.Errorf("merge: mixed channels %s and %s", first.ID(), tr.ID())
		}
		if math.Abs(tr.Delta-first.Delta) > first.Delta*1e-6 {
			return nil, fmt.Errorf("merge: mixed sample intervals %g and %g for %s",
				first.Delta, tr.Delta, first.ID())
		}
	}

	sorted := make(Stream, len(frags))
	copy(sorted, frags)
	sorted.Sort()

	start := sorted[0].Start
	end := sorted[0].End()
	for _, tr := range sorted[1:] {
		if tr.End().After(end) {
			end = tr.End()
		}
	}

	delta := first.Delta
	n := int(math.Round(end.Sub(start).Seconds()/delta)) + 1

	data := make([]float64, n)
	set := make([]bool, n)
	for _, tr := range sorted {
		offset := int(math.Round(tr.Start.Sub(start).Seconds() / delta))
		for i, v := range tr.Data {
			idx := offset + i
			if idx >= 0 && idx < n {
				data[idx] = v
				set[idx] = true
			}
		}
	}
	fillGaps(data, set)

	merged := NewTrace()
	merged.Network = first.Network
	merged.Station = first.Station
	merged.Location = first.Location
	merged.Channel = first.Channel
	merged.Start = start
	merged.Delta = delta
	merged.Data = data
	merged.StLa, merged.StLo, merged.StEl, merged.StDp = first.StLa, first.StLo, first.StEl, first.StDp
	merged.EvLa, merged.EvLo, merged.EvDp, merged.Mag = first.EvLa, first.EvLo, first.EvDp, first.Mag
	return merged, nil
}

// fillGaps linearly interpolates unset samples between set neighbors;
// leading and trailing gaps clamp to the nearest set sample.
func fillGaps(data []float64, set []bool) {
	prev := -1
	for i := 0; i < len(data); i++ {
		if !set[i] {
			continue
		}
		if prev == -1 {
			for j := 0; j < i; j++ {
				data[j] = data[i]
			}
		} else if i-prev > 1 {
			span := float64(i - prev)
			for j := prev + 1; j < i; j++ {
				t := float64(j-prev) / span
				data[j] = data[prev]*(1-t) + data[i]*t
			}
		}
		prev = i
	}
	if prev >= 0 {
		for j := prev + 1; j < len(data); j++ {
			data[j] = data[prev]
		}
	}
}

// Demean subtracts the mean from the trace in place.
func (t *Trace) Demean() {
	if len(t.Data) == 0 {
		return
	}
	mean := floats.Sum(t.Data) / float64(len(t.Data))
	floats.AddConst(-mean, t.Data)
}

// DetrendLinear removes the least-squares line from the trace in place.
func (t *Trace) DetrendLinear() {
	n := len(t.Data)
	if n < 2 {
		return
	}
	// Closed-form simple linear regression on sample index.
	var sumY, sumXY float64
	for i, v := range t.Data {
		sumY += v
		sumXY += float64(i) * v
	}
	fn := float64(n)
	sumX := fn * (fn - 1) / 2
	sumXX := (fn - 1) * fn * (2*fn - 1) / 6
	slope := (fn*sumXY - sumX*sumY) / (fn*sumXX - sumX*sumX)
	intercept := (sumY - slope*sumX) / fn
	for i := range t.Data {
		t.Data[i] -= intercept + slope*float64(i)
	}
}

// TaperHann applies a Hann taper to each end of the trace in place. fraction
// is the maximum share of the trace tapered at each end (0.05 mirrors the
// deconvolution preprocessing default).
func (t *Trace) TaperHann(fraction float64) {
	n := len(t.Data)
	width := int(float64(n) * fraction)
	if width < 1 {
		return
	}
	for i := 0; i < width; i++ {
		w := 0.5 * (1 - math.Cos(math.Pi*float64(i)/float64(width)))
		t.Data[i] *= w
		t.Data[n-1-i] *= w
	}
}

// Resample changes the sampling rate to rate Hz using Fourier-domain
// truncation or zero padding, preserving amplitude.
func (t *Trace) Resample(rate float64) error {
	if rate <= 0 {
		return fmt.Errorf("resample: rate must be positive, got %g", rate)
	}
	oldN := len(t.Data)
	if oldN == 0 {
		return errors.New("resample: empty trace")
	}

	newN := int(math.Round(float64(oldN) * rate * t.Delta))
	if newN < 2 {
		return fmt.Errorf("resample: %d samples at %g Hz leaves %d samples", oldN, rate, newN)
	}

	fft := fourier.NewFFT(oldN)
	coeffs := fft.Coefficients(nil, t.Data)

	newCoeffs := make([]complex128, newN/2+1)
	copy(newCoeffs, coeffs[:minInt(len(coeffs), len(newCoeffs))])

	inv := fourier.NewFFT(newN)
	seq := inv.Sequence(nil, newCoeffs)
	// The transform pair is unnormalized; dividing by the input length both
	// normalizes and applies the newN/oldN amplitude correction.
	floats.Scale(1/float64(oldN), seq)

	t.Data = seq
	t.Delta = 1 / rate
	return nil
}

// Trim cuts the trace to [start, end] in place, snapping boundaries to the
// nearest sample. Returns ErrNoOverlap when the window misses the trace.
func (t *Trace) Trim(start, end time.Time) error {
	if end.Before(t.Start) || start.After(t.End()) {
		return ErrNoOverlap
	}

	lo := 0
	if start.After(t.Start) {
		lo = int(math.Round(start.Sub(t.Start).Seconds() / t.Delta))
	}
	hi := len(t.Data) - 1
	if end.Before(t.End()) {
		hi = int(math.Round(end.Sub(t.Start).Seconds() / t.Delta))
	}
	if lo > hi {
		return ErrNoOverlap
	}

	t.Start = t.Start.Add(t.SampleDuration(lo))
	t.Data = t.Data[lo : hi+1]
	return nil
}

// Shift moves the trace in time without touching samples, used by the
// clock-drift correction.
func (t *Trace) Shift(d time.Duration) {
	t.Start = t.Start.Add(d)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
