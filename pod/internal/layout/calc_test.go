package layout

import (
	"math"
	"testing"
)

func TestRoundUp(t *testing.T) {
	tests := []struct {
		name string
		n    uint32
		want uint32
	}{
		{"zero", 0, 0},
		{"one", 1, 8},
		{"aligned", 8, 8},
		{"just over", 9, 16},
		{"string hi", HeaderSize + 3, 16},
		{"large", 1021, 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoundUp(tt.n); got != tt.want {
				t.Errorf("RoundUp(%d) = %d, want %d", tt.n, got, tt.want)
			}
		})
	}
}

func TestPadding(t *testing.T) {
	for n := uint32(0); n < 64; n++ {
		p := Padding(n)
		if p >= Align {
			t.Fatalf("Padding(%d) = %d, must be < %d", n, p, Align)
		}
		if (n+p)%Align != 0 {
			t.Fatalf("Padding(%d) = %d does not align", n, p)
		}
	}
}

func TestFootprint(t *testing.T) {
	tests := []struct {
		size uint32
		want uint64
	}{
		{0, 8},
		{4, 16},
		{8, 16},
		{9, 24},
		{math.MaxUint32, uint64(math.MaxUint32) + 9},
	}
	for _, tt := range tests {
		if got := Footprint(tt.size); got != tt.want {
			t.Errorf("Footprint(%d) = %d, want %d", tt.size, got, tt.want)
		}
	}
}

func TestFits(t *testing.T) {
	tests := []struct {
		name   string
		offset uint32
		n      uint32
		limit  uint64
		want   bool
	}{
		{"exact", 8, 8, 16, true},
		{"one over", 8, 9, 16, false},
		{"empty at end", 16, 0, 16, true},
		{"wrap does not pass", math.MaxUint32, 2, math.MaxUint32, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fits(tt.offset, tt.n, tt.limit); got != tt.want {
				t.Errorf("Fits(%d, %d, %d) = %v, want %v", tt.offset, tt.n, tt.limit, got, tt.want)
			}
		})
	}
}

func TestSafeArithmetic(t *testing.T) {
	if _, ok := SafeAddU32(math.MaxUint32, 1); ok {
		t.Error("SafeAddU32 should report overflow")
	}
	if v, ok := SafeAddU32(3, 4); !ok || v != 7 {
		t.Errorf("SafeAddU32(3, 4) = %d, %v", v, ok)
	}
}
