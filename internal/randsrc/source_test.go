package randsrc

import "testing"

func TestNewIsReproducible(t *testing.T) {
	a := New(42)
	b := New(42)

	for i := 0; i < 100; i++ {
		if av, bv := a.Float64(), b.Float64(); av != bv {
			t.Fatalf("draw %d: sources with equal seeds diverged: %v != %v", i, av, bv)
		}
	}
}

func TestNewDifferentSeedsDiverge(t *testing.T) {
	a := New(1)
	b := New(2)

	same := true
	for i := 0; i < 16; i++ {
		if a.Float64() != b.Float64() {
			same = false
			break
		}
	}
	if same {
		t.Error("sources with different seeds produced identical prefixes")
	}
}

func TestFloat64Range(t *testing.T) {
	src := New(7)
	for i := 0; i < 10000; i++ {
		v := src.Float64()
		if v < 0 || v >= 1 {
			t.Fatalf("Float64() = %v, want [0,1)", v)
		}
	}
}

func TestIntNRange(t *testing.T) {
	src := New(7)
	seen := make(map[int]bool)
	for i := 0; i < 10000; i++ {
		v := src.IntN(5)
		if v < 0 || v >= 5 {
			t.Fatalf("IntN(5) = %d, want [0,5)", v)
		}
		seen[v] = true
	}
	// With 10k draws every value in [0,5) appears with overwhelming probability.
	for v := 0; v < 5; v++ {
		if !seen[v] {
			t.Errorf("IntN(5) never produced %d in 10000 draws", v)
		}
	}
}

func TestNewSeed(t *testing.T) {
	a, err := NewSeed()
	if err != nil {
		t.Fatalf("NewSeed() error: %v", err)
	}
	b, err := NewSeed()
	if err != nil {
		t.Fatalf("NewSeed() error: %v", err)
	}
	if a == b {
		t.Error("two crypto seeds were identical; astronomically unlikely")
	}
}

func TestSingleProviderSharesState(t *testing.T) {
	provider := Single(New(3))

	first := provider.Stream(0).Float64()
	second := provider.Stream(1).Float64()

	// One underlying stream: the second trial must continue, not restart.
	if first == second {
		ref := New(3)
		if ref.Float64() == first && ref.Float64() == second {
			t.Error("Single provider appears to restart the stream per trial")
		}
	}
}

func TestPartitionedStreamsAreIndependentAndStable(t *testing.T) {
	provider := Partitioned(99)

	a1 := provider.Stream(4).Float64()
	a2 := provider.Stream(4).Float64()
	_ = a2

	// Stable: re-requesting the same trial stream replays it.
	if again := Partitioned(99).Stream(4).Float64(); again != a1 {
		t.Errorf("stream 4 not reproducible: %v != %v", again, a1)
	}

	// Distinct trials get distinct streams.
	if other := provider.Stream(5).Float64(); other == a1 {
		t.Errorf("streams 4 and 5 start with the same draw %v", other)
	}

	// Partitioned streams do not collide with the base single stream.
	if base := New(99).Float64(); base == a1 {
		t.Errorf("partitioned stream collides with base stream draw %v", base)
	}
}
