package util

import (
	"math/rand"
	"testing"
)

func TestGenerateLutRisesAndFalls(t *testing.T) {
	lut := GenerateLut(8)
	if len(lut) != 8 {
		t.Fatalf("expected 8 entries, got %d", len(lut))
	}
	if lut[0] != 0 || lut[7] != 0 {
		t.Errorf("expected the curve to start and end at 0, got %v and %v", lut[0], lut[7])
	}
	for i := 0; i < 4; i++ {
		if lut[i] != lut[7-i] {
			t.Errorf("entry %d is not mirrored: %v != %v", i, lut[i], lut[7-i])
		}
		if i > 0 && lut[i] <= lut[i-1] {
			t.Errorf("entry %d does not rise: %v <= %v", i, lut[i], lut[i-1])
		}
	}
}

func TestRandomiseSaturationRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		s := RandomiseSaturation(rng, 0.6, 1.0)
		if s < 0.6 || s >= 1.0 {
			t.Fatalf("saturation %v out of range", s)
		}
	}
}
