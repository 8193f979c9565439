// Package batch partitions discovered work units into fixed-size groups so
// that per-task dispatch overhead stays bounded on very large archives.
package batch

import "fmt"

// Partition splits units into ordered, non-overlapping batches of at most
// size elements. The last batch holds the remainder. Relative order is
// preserved, and concatenating the result reproduces units exactly.
//
// Batches share backing storage with units; callers must not mutate the
// input slice while batches are being processed.
func Partition[T any](units []T, size int) ([][]T, error) {
	if size <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", size)
	}

	if len(units) == 0 {
		return nil, nil
	}

	batches := make([][]T, 0, (len(units)+size-1)/size)
	for start := 0; start < len(units); start += size {
		end := start + size
		if end > len(units) {
			end = len(units)
		}
		batches = append(batches, units[start:end:end])
	}
	return batches, nil
}
