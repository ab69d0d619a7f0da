package util

import "testing"

func TestMinMax(t *testing.T) {
	tcs := []struct {
		a, b     int
		min, max int
	}{
		{1, 2, 1, 2},
		{2, 1, 1, 2},
		{-3, 3, -3, 3},
		{7, 7, 7, 7},
	}

	for _, tc := range tcs {
		if got := Min(tc.a, tc.b); got != tc.min {
			t.Errorf("Min(%d, %d) = %d, want %d", tc.a, tc.b, got, tc.min)
		}

		if got := Max(tc.a, tc.b); got != tc.max {
			t.Errorf("Max(%d, %d) = %d, want %d", tc.a, tc.b, got, tc.max)
		}
	}
}

func TestClamp(t *testing.T) {
	tcs := []struct {
		x, lo, hi int
		want      int
	}{
		{-5, 1, 256, 1},    // below the range
		{300, 1, 256, 256}, // above the range
		{8, 1, 256, 8},     // inside
		{1, 1, 256, 1},     // on the lower edge
		{256, 1, 256, 256}, // on the upper edge
	}

	for _, tc := range tcs {
		if got := Clamp(tc.x, tc.lo, tc.hi); got != tc.want {
			t.Errorf("Clamp(%d, %d, %d) = %d, want %d", tc.x, tc.lo, tc.hi, got, tc.want)
		}
	}
}
