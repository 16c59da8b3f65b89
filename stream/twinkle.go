package stream

import (
	"math/rand"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/matt-g-everett/lavatx/util"
)

type twinkleParticle struct {
	pixel  int
	phase  int
	colour colorful.Color
}

// A Twinkle is an Animation that pulses random particles over a background.
// Each particle follows an eased brightness curve with its own phase, so the
// animation repeats exactly every periodMs.
type Twinkle struct {
	numPixels  int
	backColour colorful.Color
	lut        []float64
	periodMs   int64
	particles  []twinkleParticle
}

// NewTwinkle creates an instance of a Twinkle object.
func NewTwinkle(numPixels int, numParticles int, foreColour, backColour colorful.Color, periodMs int64, rng *rand.Rand) *Twinkle {
	t := new(Twinkle)
	t.numPixels = numPixels
	t.backColour = backColour
	t.periodMs = periodMs
	if t.periodMs <= 0 {
		t.periodMs = 2000
	}
	t.lut = util.GenerateLut(64)

	h, _, l := foreColour.Hcl()
	t.particles = make([]twinkleParticle, numParticles)
	for i := range t.particles {
		t.particles[i] = twinkleParticle{
			pixel:  rng.Intn(numPixels),
			phase:  rng.Intn(len(t.lut)),
			colour: colorful.Hcl(h, util.RandomiseSaturation(rng, 0.6, 1.0), l),
		}
	}

	return t
}

// CalculateFrame creates a new Frame instance.
func (t *Twinkle) CalculateFrame(runtimeMs int64) *Frame {
	f := NewFrame(t.numPixels)
	for i := range f.pixels {
		f.pixels[i] = t.backColour
	}

	step := int((runtimeMs % t.periodMs) * int64(len(t.lut)) / t.periodMs)
	for _, p := range t.particles {
		gain := t.lut[(step+p.phase)%len(t.lut)]
		f.pixels[p.pixel] = t.backColour.BlendHcl(p.colour, gain)
	}

	return f
}
