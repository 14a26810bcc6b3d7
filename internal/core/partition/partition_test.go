package partition

import (
	"strconv"
	"testing"
)

func TestFor_Determinism(t *testing.T) {
	// Same input must always produce the same partition.
	id := For("device-abc")
	for i := 0; i < 100; i++ {
		if got := For("device-abc"); got != id {
			t.Fatalf("For(\"device-abc\") = %d on iteration %d, want %d", got, i, id)
		}
	}
}

func TestFor_Range(t *testing.T) {
	// All outputs must be in [0, Count).
	inputs := []string{"", "a", "device-1", "device-2", "very-long-device-id-that-should-still-hash-correctly"}
	for _, s := range inputs {
		p := For(s)
		if p < 0 || p >= Count {
			t.Errorf("For(%q) = %d, want [0, %d)", s, p, Count)
		}
	}
}

func TestFor_Distribution(t *testing.T) {
	// 1 000 devices should hit at least 100 distinct partitions. With 256
	// buckets and 1000 keys the expected unique count is ~248.
	seen := make(map[int]struct{})
	for i := 0; i < 1000; i++ {
		seen[For("device-"+strconv.Itoa(i))] = struct{}{}
	}
	if len(seen) < 100 {
		t.Errorf("only %d distinct partitions from 1000 inputs, want >= 100", len(seen))
	}
}
