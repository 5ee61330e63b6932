// rand/rand_test.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package rand

import "testing"

func TestSeedReproducible(t *testing.T) {
	a, b := Make(1234), Make(1234)
	for i := range 100 {
		if va, vb := a.Intn(1000), b.Intn(1000); va != vb {
			t.Fatalf("step %d: same seed gave %d and %d", i, va, vb)
		}
	}

	c := Make(4321)
	same := true
	a = Make(1234)
	for range 16 {
		if a.Uint32() != c.Uint32() {
			same = false
		}
	}
	if same {
		t.Errorf("different seeds gave identical sequences")
	}
}

func TestIntnRange(t *testing.T) {
	r := Make(7)
	seen := make([]bool, 5)
	for range 1000 {
		v := r.Intn(5)
		if v < 0 || v >= 5 {
			t.Fatalf("Intn(5) returned %d", v)
		}
		seen[v] = true
	}
	for i, s := range seen {
		if !s {
			t.Errorf("never sampled %d", i)
		}
	}
}

func TestSampleFiltered(t *testing.T) {
	r := Make(0)
	if SampleFiltered(r, []int{}, func(int) bool { return true }) != -1 {
		t.Errorf("Returned non-zero for empty slice")
	}
	if SampleFiltered(r, []int{0, 1, 2, 3, 4}, func(int) bool { return false }) != -1 {
		t.Errorf("Returned non-zero for fully filtered")
	}
	if idx := SampleFiltered(r, []int{0, 1, 2, 3, 4}, func(v int) bool { return v == 3 }); idx != 3 {
		t.Errorf("Returned %d rather than 3 for filtered slice", idx)
	}

	var counts [5]int
	for range 10000 {
		counts[SampleFiltered(r, []int{0, 1, 2, 3, 4}, func(v int) bool { return v%2 == 0 })]++
	}
	if counts[1] != 0 || counts[3] != 0 {
		t.Errorf("Sampled filtered-out items: %v", counts)
	}
	for _, i := range []int{0, 2, 4} {
		if counts[i] < 2800 || counts[i] > 3900 {
			t.Errorf("Unexpected distribution: %v", counts)
		}
	}
}

func TestSampleSlice(t *testing.T) {
	r := Make(99)
	s := []string{"a", "b", "c"}
	for range 50 {
		v := SampleSlice(r, s)
		if v != "a" && v != "b" && v != "c" {
			t.Fatalf("unexpected sample %q", v)
		}
	}
}
