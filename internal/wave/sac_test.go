package wave

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTrace(start time.Time, delta float64, data []float64) *Trace {
	tr := NewTrace()
	tr.Network = "NZ"
	tr.Station = "NZ37"
	tr.Channel = "BHZ"
	tr.Start = start
	tr.Delta = delta
	tr.Data = data
	return tr
}

func TestSAC_Roundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "NZ.NZ37..BHZ.D.2024.001.sac")

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := testTrace(start, 0.01, []float64{1, -2, 3.5, 0, 4})
	tr.StLa = -41.28
	tr.StLo = 174.77
	tr.EvLa = -40.9
	tr.EvLo = 175.1
	tr.Mag = 5.4

	require.NoError(t, WriteSAC(path, tr))

	got, err := ReadSAC(path)
	require.NoError(t, err)

	assert.Equal(t, "NZ", got.Network)
	assert.Equal(t, "NZ37", got.Station)
	assert.Equal(t, "", got.Location)
	assert.Equal(t, "BHZ", got.Channel)
	assert.InDelta(t, 0.01, got.Delta, 1e-9)
	assert.True(t, got.Start.Equal(start), "start %v", got.Start)
	require.Len(t, got.Data, 5)
	for i := range tr.Data {
		assert.InDelta(t, tr.Data[i], got.Data[i], 1e-5)
	}
	assert.InDelta(t, -41.28, got.StLa, 1e-4)
	assert.InDelta(t, 5.4, got.Mag, 1e-5)
	assert.True(t, math.IsNaN(got.StEl), "unset header fields stay unset")
}

func TestSAC_RoundtripDayBoundary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "day365.sac")

	start := time.Date(2023, 12, 31, 23, 59, 59, 500e6, time.UTC)
	require.NoError(t, WriteSAC(path, testTrace(start, 1, []float64{1, 2, 3})))

	got, err := ReadSAC(path)
	require.NoError(t, err)
	assert.True(t, got.Start.Equal(start), "start %v", got.Start)
	assert.Equal(t, 365, got.Start.YearDay())
}

func TestReadSAC_Truncated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.sac")
	require.NoError(t, os.WriteFile(path, make([]byte, 100), 0o644))

	_, err := ReadSAC(path)
	assert.Error(t, err)
}

func TestReadSAC_Garbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "garbage.sac")
	junk := make([]byte, headerBytes+8)
	for i := range junk {
		junk[i] = byte(i * 7)
	}
	require.NoError(t, os.WriteFile(path, junk, 0o644))

	_, err := ReadSAC(path)
	assert.Error(t, err, "unrecognized header version must be rejected")
}

func TestEnd(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := testTrace(start, 0.5, []float64{1, 2, 3, 4})
	assert.True(t, tr.End().Equal(start.Add(1500*time.Millisecond)))
}

func TestWriteSAC_UnsetIntWordsHoldSentinel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "NZ.NZ37..BHZ.D.2024.001.sac")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, WriteSAC(path, testTrace(start, 0.01, []float64{1, 2, 3})))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	// norid (word 77) and nevid (word 78) are never written; their words
	// must carry the integer sentinel, not a float32 encoding of it.
	undef := int32(sacUndef)
	for _, word := range []int{77, 78} {
		got := int32(binary.LittleEndian.Uint32(raw[word*4:]))
		assert.Equal(t, undef, got, "word %d", word)
	}
}
