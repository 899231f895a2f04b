package mathx

import "testing"

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 10); got != 5 {
		t.Errorf("Clamp(5,0,10) = %d", got)
	}
	if got := Clamp(-1, 0, 10); got != 0 {
		t.Errorf("Clamp(-1,0,10) = %d", got)
	}
	if got := Clamp(11, 0, 10); got != 10 {
		t.Errorf("Clamp(11,0,10) = %d", got)
	}
	// Swapped bounds are tolerated.
	if got := Clamp(5, 10, 0); got != 5 {
		t.Errorf("Clamp(5,10,0) = %d", got)
	}
}

func TestAlignDown(t *testing.T) {
	cases := []struct{ v, unit, want int }{
		{19, 4, 16},
		{16, 4, 16},
		{3, 4, 0},
		{0, 4, 0},
		{7, 0, 7},
	}
	for _, c := range cases {
		if got := AlignDown(c.v, c.unit); got != c.want {
			t.Errorf("AlignDown(%d,%d) = %d, want %d", c.v, c.unit, got, c.want)
		}
	}
}
