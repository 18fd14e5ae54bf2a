package jonx

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// buildIndex computes the argsort permutation pi of [0, N) such that
// col[pi(i)] is non-decreasing, per spec.md §4.4. Sorting is stable on
// ties. Grounded on the sort package usage throughout the teacher's
// reader.go (sort.Search over blockInfo), generalized here to
// sort.SliceStable over a plain index slice.
func buildIndex(col any) ([]uint32, error) {
	n, err := numericLen(col)
	if err != nil {
		return nil, err
	}

	pi := make([]uint32, n)
	for i := range pi {
		pi[i] = uint32(i)
	}

	values := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := numericValueAt(col, i)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	sort.SliceStable(pi, func(a, b int) bool {
		return values[pi[a]] < values[pi[b]]
	})
	return pi, nil
}

// equalPermutations reports whether two permutations are identical.
func equalPermutations(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// encodeIndex serializes a permutation as N little-endian u32 row indices.
func encodeIndex(pi []uint32) []byte {
	buf := make([]byte, 4*len(pi))
	for i, v := range pi {
		binary.LittleEndian.PutUint32(buf[4*i:], v)
	}
	return buf
}

// decodeIndex parses an index frame's plaintext into a permutation.
func decodeIndex(plaintext []byte, n int) ([]uint32, error) {
	if len(plaintext) != 4*n {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrIndexInvalid, 4*n, len(plaintext))
	}
	pi := make([]uint32, n)
	for i := range pi {
		pi[i] = binary.LittleEndian.Uint32(plaintext[4*i:])
	}
	return pi, nil
}

// validateIndex checks that pi is a permutation of [0, N) and that it
// orders col non-decreasingly, per spec.md §8's index-correctness property.
func validateIndex(pi []uint32, col any) error {
	n, err := numericLen(col)
	if err != nil {
		return err
	}
	if len(pi) != n {
		return fmt.Errorf("%w: index has %d entries, column has %d rows", ErrIndexInvalid, len(pi), n)
	}

	seen := make([]bool, n)
	for _, p := range pi {
		if int(p) >= n {
			return fmt.Errorf("%w: index entry %d out of bounds for %d rows", ErrIndexInvalid, p, n)
		}
		if seen[p] {
			return fmt.Errorf("%w: index entry %d repeated", ErrIndexInvalid, p)
		}
		seen[p] = true
	}

	for i := 0; i+1 < n; i++ {
		a, err := numericValueAt(col, int(pi[i]))
		if err != nil {
			return err
		}
		b, err := numericValueAt(col, int(pi[i+1]))
		if err != nil {
			return err
		}
		if a > b {
			return fmt.Errorf("%w: index not sorted at position %d", ErrIndexInvalid, i)
		}
	}
	return nil
}
