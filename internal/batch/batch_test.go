package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartition_Roundtrip(t *testing.T) {
	cases := []struct {
		name  string
		n     int
		size  int
		wants []int // expected batch lengths
	}{
		{name: "evenly divisible", n: 9, size: 3, wants: []int{3, 3, 3}},
		{name: "remainder", n: 10, size: 3, wants: []int{3, 3, 3, 1}},
		{name: "size larger than input", n: 2, size: 100, wants: []int{2}},
		{name: "size one", n: 3, size: 1, wants: []int{1, 1, 1}},
		{name: "single element", n: 1, size: 3, wants: []int{1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			units := make([]int, tc.n)
			for i := range units {
				units[i] = i
			}

			batches, err := Partition(units, tc.size)
			require.NoError(t, err)
			require.Len(t, batches, len(tc.wants))

			var flat []int
			for i, b := range batches {
				assert.Len(t, b, tc.wants[i])
				flat = append(flat, b...)
			}
			assert.Equal(t, units, flat, "concatenated batches must reproduce input")
		})
	}
}

func TestPartition_Empty(t *testing.T) {
	batches, err := Partition([]string(nil), 5)
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestPartition_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, err := Partition([]int{1, 2, 3}, size)
		assert.Error(t, err, "size %d", size)
	}
}
