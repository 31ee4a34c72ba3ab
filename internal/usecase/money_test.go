//go:build !integration

package usecase

import "testing"

func TestToMinorUnits(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{25.00, 2500},
		{25.005, 2501}, // half rounds up, despite binary storing 25.004999...
		{25.004, 2500},
		{25.0049, 2500},
		{0, 0},
		{0.005, 1},
		{0.004, 0},
		{199.99, 19999},
		{1000, 100000},
		{2.675, 268},
		{-25.005, -2501},
		{-25.004, -2500},
	}
	for _, tc := range cases {
		if got := ToMinorUnits(tc.in); got != tc.want {
			t.Errorf("ToMinorUnits(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
