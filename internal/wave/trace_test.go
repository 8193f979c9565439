package wave

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_GapInterpolation(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	a := testTrace(start, 1, []float64{0, 0, 0})        // samples at 0s,1s,2s
	b := testTrace(start.Add(6*time.Second), 1, []float64{4, 4}) // 6s,7s

	merged, err := Merge(Stream{a, b})
	require.NoError(t, err)

	require.Len(t, merged.Data, 8)
	assert.True(t, merged.Start.Equal(start))
	// Gap samples at 3s,4s,5s interpolate between 0 and 4.
	assert.InDelta(t, 1.0, merged.Data[3], 1e-9)
	assert.InDelta(t, 2.0, merged.Data[4], 1e-9)
	assert.InDelta(t, 3.0, merged.Data[5], 1e-9)
}

func TestMerge_OverlapLaterWins(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	a := testTrace(start, 1, []float64{1, 1, 1, 1})
	b := testTrace(start.Add(2*time.Second), 1, []float64{9, 9, 9})

	merged, err := Merge(Stream{a, b})
	require.NoError(t, err)

	require.Len(t, merged.Data, 5)
	assert.Equal(t, []float64{1, 1, 9, 9, 9}, merged.Data)
}

func TestMerge_SingleFragmentPassthrough(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := testTrace(start, 1, []float64{1, 2})

	merged, err := Merge(Stream{a})
	require.NoError(t, err)
	assert.Same(t, a, merged)
}

func TestMerge_MixedChannelsRejected(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := testTrace(start, 1, []float64{1})
	b := testTrace(start, 1, []float64{2})
	b.Channel = "BHN"

	_, err := Merge(Stream{a, b})
	assert.ErrorContains(t, err, "mixed channels")
}

func TestMerge_MixedIntervalsRejected(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := testTrace(start, 1, []float64{1})
	b := testTrace(start, 0.5, []float64{2})

	_, err := Merge(Stream{a, b})
	assert.ErrorContains(t, err, "mixed sample intervals")
}

func TestByChannel(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	z1 := testTrace(start, 1, []float64{1})
	z2 := testTrace(start.Add(time.Hour), 1, []float64{2})
	n := testTrace(start, 1, []float64{3})
	n.Channel = "BHN"

	groups := Stream{z1, n, z2}.ByChannel()
	require.Len(t, groups, 2)
	assert.Len(t, groups["NZ.NZ37..BHZ"], 2)
	assert.Len(t, groups["NZ.NZ37..BHN"], 1)
}

func TestDemean(t *testing.T) {
	tr := testTrace(time.Now(), 1, []float64{1, 2, 3, 4, 5})
	tr.Demean()
	assert.InDelta(t, 0, tr.Data[2], 1e-12)
	assert.InDelta(t, -2, tr.Data[0], 1e-12)
}

func TestDetrendLinear(t *testing.T) {
	tr := testTrace(time.Now(), 1, make([]float64, 100))
	for i := range tr.Data {
		tr.Data[i] = 3 + 0.25*float64(i)
	}
	tr.DetrendLinear()
	for i, v := range tr.Data {
		assert.InDelta(t, 0, v, 1e-9, "sample %d", i)
	}
}

func TestTaperHann(t *testing.T) {
	tr := testTrace(time.Now(), 1, make([]float64, 100))
	for i := range tr.Data {
		tr.Data[i] = 1
	}
	tr.TaperHann(0.05)

	assert.InDelta(t, 0, tr.Data[0], 1e-12)
	assert.InDelta(t, 0, tr.Data[99], 1e-12)
	assert.InDelta(t, 1, tr.Data[50], 1e-12, "interior untouched")
}

func TestResample_Downsample(t *testing.T) {
	// 100 Hz sine at 2 Hz, one second.
	tr := testTrace(time.Now(), 0.01, make([]float64, 100))
	for i := range tr.Data {
		tr.Data[i] = math.Sin(2 * math.Pi * 2 * float64(i) * 0.01)
	}

	require.NoError(t, tr.Resample(20))

	assert.Len(t, tr.Data, 20)
	assert.InDelta(t, 0.05, tr.Delta, 1e-12)
	// The 2 Hz component sits below the new 10 Hz Nyquist, so the resampled
	// sequence still follows the sine.
	for i, v := range tr.Data {
		want := math.Sin(2 * math.Pi * 2 * float64(i) * 0.05)
		assert.InDelta(t, want, v, 0.15, "sample %d", i)
	}
}

func TestResample_PreservesDC(t *testing.T) {
	tr := testTrace(time.Now(), 0.01, make([]float64, 100))
	for i := range tr.Data {
		tr.Data[i] = 7
	}
	require.NoError(t, tr.Resample(50))

	require.Len(t, tr.Data, 50)
	for i, v := range tr.Data {
		assert.InDelta(t, 7, v, 1e-6, "sample %d", i)
	}
}

func TestResample_RejectsBadRate(t *testing.T) {
	tr := testTrace(time.Now(), 0.01, []float64{1, 2, 3})
	assert.Error(t, tr.Resample(0))
	assert.Error(t, tr.Resample(-1))
}

func TestTrim(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := testTrace(start, 1, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})

	require.NoError(t, tr.Trim(start.Add(3*time.Second), start.Add(6*time.Second)))

	assert.Equal(t, []float64{3, 4, 5, 6}, tr.Data)
	assert.True(t, tr.Start.Equal(start.Add(3*time.Second)))
}

func TestTrim_WindowBeyondTrace(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := testTrace(start, 1, []float64{0, 1, 2})

	err := tr.Trim(start.Add(time.Hour), start.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrNoOverlap)
}

func TestTrim_ClampsToTrace(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := testTrace(start, 1, []float64{0, 1, 2})

	require.NoError(t, tr.Trim(start.Add(-time.Hour), start.Add(time.Hour)))
	assert.Equal(t, []float64{0, 1, 2}, tr.Data)
}

func TestShift(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := testTrace(start, 1, []float64{0})
	tr.Shift(-250 * time.Millisecond)
	assert.True(t, tr.Start.Equal(start.Add(-250*time.Millisecond)))
}
