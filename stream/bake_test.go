package stream

import (
	"context"
	"math/rand"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/matt-g-everett/lavatx/manifest"
)

func TestBakeGradientTrail(t *testing.T) {
	anim := NewGradientTrail(RainbowGradient, 20, 10, 0.01)
	m, err := Bake(anim, 24, 30)
	if err != nil {
		t.Fatalf("bake: %v", err)
	}
	if m.FrameCount() != 24 || m.FPS != 30 {
		t.Fatalf("unexpected manifest %d frames @ %v", m.FrameCount(), m.FPS)
	}
	for i, d := range m.Frames {
		if len(d.Pixels) != 20 {
			t.Fatalf("frame %d: expected 20 pixels, got %d", i, len(d.Pixels))
		}
	}
	moved := false
	for i := range m.Frames[0].Pixels {
		if m.Frames[0].Pixels[i] != m.Frames[10].Pixels[i] {
			moved = true
		}
	}
	if !moved {
		t.Fatalf("expected the trail to move between frames")
	}
}

func TestBakedManifestRendersBack(t *testing.T) {
	fore, _ := colorful.Hex("#808080")
	back, _ := colorful.Hex("#000005")
	anim := NewTwinkle(30, 6, fore, back, 1000, rand.New(rand.NewSource(7)))
	m, err := Bake(anim, 30, 30)
	if err != nil {
		t.Fatalf("bake: %v", err)
	}

	dir := t.TempDir()
	if err := manifest.Write(dir, m); err != nil {
		t.Fatalf("write: %v", err)
	}

	sender := new(recordingSender)
	r := NewRenderer(manifest.NewFetcher(nil), sender, 30, discard())
	defer r.Close()
	if err := r.LoadAsset(context.Background(), dir); err != nil {
		t.Fatalf("load: %v", err)
	}
	r.RedrawAt(4)
	waitFor(t, "the redraw to be sent", func() bool { return sender.count() == 1 })
	sent := sender.last()
	for i, hex := range sent.Hex() {
		if hex != m.Frames[4].Pixels[i] {
			t.Fatalf("pixel %d: expected %s, got %s", i, m.Frames[4].Pixels[i], hex)
		}
	}
}

func TestTwinkleRepeatsEveryPeriod(t *testing.T) {
	fore, _ := colorful.Hex("#808080")
	back, _ := colorful.Hex("#000005")
	anim := NewTwinkle(16, 4, fore, back, 800, rand.New(rand.NewSource(1)))

	a := anim.CalculateFrame(120).Hex()
	b := anim.CalculateFrame(920).Hex()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("pixel %d differs across one period: %s vs %s", i, a[i], b[i])
		}
	}
}

func TestStripesRepeatEveryRing(t *testing.T) {
	palette := []colorful.Color{{R: 1}, {G: 1}, {B: 1}}
	s := NewStripes(30, 6, palette, 5, 20, rand.New(rand.NewSource(3)))
	for i := 1; i < len(s.stripes); i++ {
		if s.stripes[i].colour == s.stripes[i-1].colour {
			t.Fatalf("stripes %d and %d share a colour", i-1, i)
		}
	}

	s.SetSpeed(1)
	ring := int64(s.RingLength())
	first := s.CalculateFrame(0).Hex()
	again := s.CalculateFrame(ring).Hex()
	for i := range first {
		if first[i] != again[i] {
			t.Fatalf("pixel %d: %s != %s after one ring", i, first[i], again[i])
		}
	}

	m, err := Bake(s, 12, 30)
	if err != nil {
		t.Fatalf("bake: %v", err)
	}
	if len(m.Frames[11].Pixels) != 30 {
		t.Fatalf("expected 30 pixels, got %d", len(m.Frames[11].Pixels))
	}
}
