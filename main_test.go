package main

import (
	"context"
	"testing"

	"github.com/matt-g-everett/lavatx/manifest"
)

func TestBakeRejectsBadInput(t *testing.T) {
	cases := []struct {
		name      string
		animation string
		frames    int
		fps       float64
		pixels    int
	}{
		{"no pixels", "twinkle", 10, 30, 0},
		{"negative pixels", "gradient", 10, 30, -1},
		{"no frames", "stripes", 0, 30, 10},
		{"no fps", "gradient", 10, 0, 10},
		{"unknown", "plasma", 10, 30, 10},
	}
	for _, c := range cases {
		if err := bake(t.TempDir(), c.animation, c.frames, c.fps, c.pixels); err == nil {
			t.Errorf("%s: expected an error", c.name)
		}
	}
}

func TestBakeWritesLoadableManifest(t *testing.T) {
	for _, animation := range []string{"gradient", "twinkle", "stripes"} {
		dir := t.TempDir()
		if err := bake(dir, animation, 12, 24, 16); err != nil {
			t.Fatalf("%s: bake: %v", animation, err)
		}
		m, err := manifest.NewFetcher(nil).Load(context.Background(), dir)
		if err != nil {
			t.Fatalf("%s: load: %v", animation, err)
		}
		if m.FrameCount() != 12 || m.FPS != 24 || len(m.Frames[0].Pixels) != 16 {
			t.Fatalf("%s: unexpected manifest %d frames @ %v", animation, m.FrameCount(), m.FPS)
		}
	}
}
