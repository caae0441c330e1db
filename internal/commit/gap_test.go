package commit

import "testing"

func TestClassifyGap(t *testing.T) {
	cases := []struct {
		name     string
		n        uint64
		localMax uint64
		class    GapClass
		gapSize  uint64
	}{
		{"first message", 1, 0, InOrder, 0},
		{"next in order", 6, 5, InOrder, 0},
		{"duplicate", 5, 5, Stale, 0},
		{"old replay", 2, 5, Stale, 0},
		{"gap of one", 7, 5, Gap, 1},
		{"gap of two", 8, 5, Gap, 2},
		{"unknown cursor treated as zero", 3, 0, Gap, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyGap(tc.n, tc.localMax)
			if got.Class != tc.class {
				t.Fatalf("class = %v, want %v", got.Class, tc.class)
			}
			if got.GapSize != tc.gapSize {
				t.Fatalf("gap size = %d, want %d", got.GapSize, tc.gapSize)
			}
			if got.LocalMax != tc.localMax {
				t.Fatalf("local max = %d, want %d", got.LocalMax, tc.localMax)
			}
		})
	}
}
