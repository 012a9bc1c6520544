package fastlzma2

import "testing"

func TestSliceBoundsSplitsWideBlocks(t *testing.T) {
	bounds := sliceBounds(8*minSliceSize, 4)
	if len(bounds) != 5 {
		t.Fatalf("got %d bounds, want 5 (4 slices)", len(bounds))
	}
	if bounds[0] != 0 || bounds[len(bounds)-1] != 8*minSliceSize {
		t.Fatalf("bounds %v do not cover the whole block", bounds)
	}
	for i := 1; i < len(bounds); i++ {
		if bounds[i] <= bounds[i-1] {
			t.Fatalf("bounds %v are not strictly increasing", bounds)
		}
	}
}

func TestSliceBoundsNeverNarrowerThanMinSliceSize(t *testing.T) {
	bounds := sliceBounds(3*minSliceSize, 16)
	for i := 1; i < len(bounds); i++ {
		if width := bounds[i] - bounds[i-1]; width < minSliceSize {
			t.Fatalf("slice [%d,%d) is %d bytes wide, narrower than minSliceSize", bounds[i-1], bounds[i], width)
		}
	}
}

func TestSliceBoundsSingleSliceForSmallBlocks(t *testing.T) {
	bounds := sliceBounds(1024, 8)
	if len(bounds) != 2 {
		t.Fatalf("got %d bounds, want 2 (1 slice) for a block smaller than minSliceSize", len(bounds))
	}
}

func TestSliceBoundsEmptyBlock(t *testing.T) {
	bounds := sliceBounds(0, 8)
	if len(bounds) != 2 || bounds[0] != 0 || bounds[1] != 0 {
		t.Fatalf("sliceBounds(0, 8) = %v, want [0 0]", bounds)
	}
}
