// Package wave is the in-process waveform backend: a SAC binary codec and
// the trace transforms the pipeline stages delegate to (merge, detrend,
// taper, resample, response removal). It is a collaborator of the
// orchestration layer, not part of its contract.
package wave

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strings"
	"time"
)

const (
	headerBytes = 632 // 158 four-byte words
	sacUndef    = -12345.0
	nvhdrValue  = 6
)

// Word offsets into the SAC header. Floats occupy words 0-69, ints 70-109,
// 8/16-char fields start at byte 440.
const (
	wDelta  = 0
	wDepMin = 1
	wDepMax = 2
	wB      = 5
	wE      = 6
	wStLa   = 31
	wStLo   = 32
	wStEl   = 33
	wStDp   = 34
	wEvLa   = 35
	wEvLo   = 36
	wEvEl   = 37
	wEvDp   = 38
	wMag    = 39
	wDepMen = 56

	wNzYear = 70
	wNzJDay = 71
	wNzHour = 72
	wNzMin  = 73
	wNzSec  = 74
	wNzMsec = 75
	wNvhdr  = 76
	wNpts   = 79
	wIftype = 85
	wLeven  = 105
	wLcalda = 108

	bKStNm  = 440 // 8 bytes
	bKHole  = 464 // 8 bytes
	bKCmpNm = 600 // 8 bytes
	bKNetWk = 608 // 8 bytes
)

// Trace is one evenly sampled waveform segment with the header fields the
// pipeline reads or rewrites. Times are UTC.
type Trace struct {
	Network  string
	Station  string
	Location string
	Channel  string

	Start time.Time
	Delta float64 // sample interval in seconds
	Data  []float64

	// Begin offset of the first sample relative to the reference time, in
	// seconds. Zero for the day files this pipeline produces.
	B float64

	// Station and event geometry, NaN when unset.
	StLa, StLo, StEl, StDp float64
	EvLa, EvLo, EvDp, Mag  float64
}

// NewTrace returns a trace with geometry fields unset.
func NewTrace() *Trace {
	return &Trace{
		StLa: math.NaN(), StLo: math.NaN(), StEl: math.NaN(), StDp: math.NaN(),
		EvLa: math.NaN(), EvLo: math.NaN(), EvDp: math.NaN(), Mag: math.NaN(),
	}
}

// End returns the time of the last sample.
func (t *Trace) End() time.Time {
	if len(t.Data) == 0 {
		return t.Start
	}
	return t.Start.Add(t.SampleDuration(len(t.Data) - 1))
}

// SampleDuration converts a sample count to a duration at this trace's rate.
func (t *Trace) SampleDuration(n int) time.Duration {
	return time.Duration(float64(n) * t.Delta * float64(time.Second))
}

// SamplingRate returns samples per second.
func (t *Trace) SamplingRate() float64 {
	if t.Delta == 0 {
		return 0
	}
	return 1 / t.Delta
}

// ID returns the net.sta.loc.chan channel identity used for merge grouping.
func (t *Trace) ID() string {
	return strings.Join([]string{t.Network, t.Station, t.Location, t.Channel}, ".")
}

// ReadSAC reads one SAC binary file. Byte order is detected from the header
// version word, so files written on either endianness are accepted.
func ReadSAC(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sac %s: %w", path, err)
	}
	if len(data) < headerBytes {
		return nil, fmt.Errorf("read sac %s: truncated header (%d bytes)", path, len(data))
	}

	order := binary.ByteOrder(binary.LittleEndian)
	if int32(order.Uint32(data[wNvhdr*4:])) != nvhdrValue {
		order = binary.BigEndian
		if int32(order.Uint32(data[wNvhdr*4:])) != nvhdrValue {
			return nil, fmt.Errorf("read sac %s: unrecognized header version", path)
		}
	}

	getF := func(word int) float64 {
		return float64(math.Float32frombits(order.Uint32(data[word*4:])))
	}
	getI := func(word int) int32 {
		return int32(order.Uint32(data[word*4:]))
	}
	getS := func(off, n int) string {
		s := strings.TrimRight(string(data[off:off+n]), " \x00")
		if s == "-12345" {
			return ""
		}
		return s
	}

	npts := int(getI(wNpts))
	if npts < 0 || len(data) < headerBytes+4*npts {
		return nil, fmt.Errorf("read sac %s: npts %d exceeds file size", path, npts)
	}

	tr := NewTrace()
	tr.Delta = getF(wDelta)
	tr.B = getF(wB)
	tr.Network = getS(bKNetWk, 8)
	tr.Station = getS(bKStNm, 8)
	tr.Location = getS(bKHole, 8)
	tr.Channel = getS(bKCmpNm, 8)

	tr.Start = refTime(getI(wNzYear), getI(wNzJDay), getI(wNzHour),
		getI(wNzMin), getI(wNzSec), getI(wNzMsec)).
		Add(time.Duration(tr.B * float64(time.Second)))

	for word, dst := range map[int]*float64{
		wStLa: &tr.StLa, wStLo: &tr.StLo, wStEl: &tr.StEl, wStDp: &tr.StDp,
		wEvLa: &tr.EvLa, wEvLo: &tr.EvLo, wEvDp: &tr.EvDp, wMag: &tr.Mag,
	} {
		if v := getF(word); v != sacUndef {
			*dst = v
		}
	}

	tr.Data = make([]float64, npts)
	for i := 0; i < npts; i++ {
		tr.Data[i] = float64(math.Float32frombits(order.Uint32(data[headerBytes+4*i:])))
	}
	return tr, nil
}

// WriteSAC writes the trace as a little-endian SAC binary file. The file is
// written to a temporary name and renamed, so a partially written
// destination never masquerades as complete output.
func WriteSAC(path string, tr *Trace) error {
	buf := make([]byte, headerBytes+4*len(tr.Data))

	// Every header word starts undefined.
	undefInt := int32(sacUndef)
	for w := 0; w < 110; w++ {
		if w < 70 {
			binary.LittleEndian.PutUint32(buf[w*4:], math.Float32bits(sacUndef))
		} else {
			binary.LittleEndian.PutUint32(buf[w*4:], uint32(undefInt))
		}
	}
	for i := 440; i < headerBytes; i += 8 {
		copy(buf[i:i+8], "-12345  ")
	}

	putF := func(word int, v float64) {
		binary.LittleEndian.PutUint32(buf[word*4:], math.Float32bits(float32(v)))
	}
	putI := func(word int, v int32) {
		binary.LittleEndian.PutUint32(buf[word*4:], uint32(v))
	}
	putS := func(off int, s string) {
		field := []byte("        ")
		copy(field, s)
		copy(buf[off:off+8], field)
	}
	putOpt := func(word int, v float64) {
		if !math.IsNaN(v) {
			putF(word, v)
		}
	}

	start := tr.Start.UTC()
	putF(wDelta, tr.Delta)
	putF(wB, 0)
	putF(wE, tr.Delta*float64(len(tr.Data)-1))
	putI(wNzYear, int32(start.Year()))
	putI(wNzJDay, int32(start.YearDay()))
	putI(wNzHour, int32(start.Hour()))
	putI(wNzMin, int32(start.Minute()))
	putI(wNzSec, int32(start.Second()))
	putI(wNzMsec, int32(start.Nanosecond()/1e6))
	putI(wNvhdr, nvhdrValue)
	putI(wNpts, int32(len(tr.Data)))
	putI(wIftype, 1) // ITIME, evenly spaced
	putI(wLeven, 1)
	putI(wLcalda, 1)

	putOpt(wStLa, tr.StLa)
	putOpt(wStLo, tr.StLo)
	putOpt(wStEl, tr.StEl)
	putOpt(wStDp, tr.StDp)
	putOpt(wEvLa, tr.EvLa)
	putOpt(wEvLo, tr.EvLo)
	putOpt(wEvDp, tr.EvDp)
	putOpt(wMag, tr.Mag)

	if len(tr.Data) > 0 {
		min, max, mean := stats(tr.Data)
		putF(wDepMin, min)
		putF(wDepMax, max)
		putF(wDepMen, mean)
	}

	putS(bKStNm, tr.Station)
	putS(bKHole, tr.Location)
	putS(bKCmpNm, tr.Channel)
	putS(bKNetWk, tr.Network)

	for i, v := range tr.Data {
		binary.LittleEndian.PutUint32(buf[headerBytes+4*i:], math.Float32bits(float32(v)))
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return fmt.Errorf("write sac %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write sac %s: %w", path, err)
	}
	return nil
}

func refTime(year, jday, hour, min, sec, msec int32) time.Time {
	return time.Date(int(year), 1, 1, int(hour), int(min), int(sec),
		int(msec)*int(time.Millisecond), time.UTC).
		AddDate(0, 0, int(jday)-1)
}

func stats(data []float64) (min, max, mean float64) {
	min, max = data[0], data[0]
	var sum float64
	for _, v := range data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	return min, max, sum / float64(len(data))
}
