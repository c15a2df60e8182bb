package scope

import "testing"

func TestSnapshotReturnsLatestSamplesInOrder(t *testing.T) {
	tap := NewTap()
	// Stereo frames (n, n): mono downmix is just n.
	block := make([]float32, 12)
	for f := 0; f < 6; f++ {
		block[f*2] = float32(f + 1)
		block[f*2+1] = float32(f + 1)
	}
	tap.Feed(block)

	got := tap.Snapshot(3)
	want := []float32{4, 5, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("snapshot %v, want %v", got, want)
		}
	}
	if tap.Total() != 6 {
		t.Errorf("total %d, want 6", tap.Total())
	}
}

func TestSnapshotWrapsAroundRing(t *testing.T) {
	tap := NewTap()
	frames := ringLen + 10
	block := make([]float32, frames*2)
	for f := 0; f < frames; f++ {
		block[f*2] = float32(f)
		block[f*2+1] = float32(f)
	}
	tap.Feed(block)
	got := tap.Snapshot(2)
	if got[0] != float32(frames-2) || got[1] != float32(frames-1) {
		t.Errorf("wrapped snapshot %v", got)
	}
}

func TestSnapshotBoundsAndEmpty(t *testing.T) {
	tap := NewTap()
	if tap.Snapshot(0) != nil {
		t.Error("zero-length snapshot should be nil")
	}
	got := tap.Snapshot(4)
	for _, v := range got {
		if v != 0 {
			t.Errorf("unfed tap returned nonzero sample %f", v)
		}
	}
	if len(tap.Snapshot(ringLen + 100)) != ringLen {
		t.Error("oversized request not clamped to ring length")
	}
}
