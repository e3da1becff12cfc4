package loudness

import "testing"

func TestSeed(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"ab", 195},
		{"\U0001D11E", 0xD834 + 0xDD1E},
	}
	for _, tt := range tests {
		if got := Seed(tt.in); got != tt.want {
			t.Errorf("Seed(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFallbackBars(t *testing.T) {
	tests := []struct {
		size     int
		interval float64
		want     int
	}{
		{240000, 0.5, 20},
		{240000, 1, 10},
		{1, 0.5, 1},
		{0, 0.5, 0},
	}
	for _, tt := range tests {
		if got := FallbackBars(tt.size, tt.interval); got != tt.want {
			t.Errorf("FallbackBars(%d, %v) = %d, want %d", tt.size, tt.interval, got, tt.want)
		}
	}
}

func TestFallbackDeterministic(t *testing.T) {
	a := Fallback("uploads/song.ogg", 120)
	b := Fallback("uploads/song.ogg", 120)
	if len(a) != 120 {
		t.Fatalf("got %d bars", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("bar %d differs: %v vs %v", i, a[i], b[i])
		}
		if a[i] < 0 || a[i] > 1 {
			t.Errorf("bar %d = %v out of [0, 1]", i, a[i])
		}
	}

	c := Fallback("uploads/other.ogg", 120)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different paths produced identical waveforms")
	}
}

func TestFallbackEmpty(t *testing.T) {
	if got := Fallback("x", 0); len(got) != 0 {
		t.Errorf("Fallback(x, 0) = %v", got)
	}
}
