package stream

import (
	"math"
	"math/rand"

	"github.com/lucasb-eyer/go-colorful"
)

// Stripe is one coloured band of a Stripes ring.
type Stripe struct {
	colour colorful.Color
	length int32
}

// A Stripes is an Animation that scrolls a ring of coloured stripes along
// the strip. Stripes stretch towards the far end of the strip to fake
// perspective. The ring wraps, so the animation repeats every RingLength
// pixels of travel.
type Stripes struct {
	numPixels   int
	stripes     []Stripe
	ring        float64
	pixelsPerMs float64
	adjusted    bool
}

// NewStripes creates a ring of count stripes with lengths in [minLength,
// maxLength). Colours come from palette, never repeating the previous
// stripe's colour, or are random hues when palette has fewer than two.
func NewStripes(numPixels int, count int, palette []colorful.Color, minLength, maxLength int32, rng *rand.Rand) *Stripes {
	s := new(Stripes)
	s.numPixels = numPixels
	s.adjusted = true
	if count < 1 {
		count = 1
	}
	if minLength < 1 {
		minLength = 1
	}
	if maxLength <= minLength {
		maxLength = minLength + 1
	}

	current := -1
	s.stripes = make([]Stripe, count)
	for i := range s.stripes {
		var colour colorful.Color
		if len(palette) < 2 {
			colour = colorful.Hsl(rng.Float64()*360.0, 1.0, 0.2)
		} else {
			// Choose a new colour that's different from the previous colour
			for {
				next := rng.Intn(len(palette))
				if next != current {
					current = next
					break
				}
			}
			colour = palette[current]
		}
		length := rng.Int31n(maxLength-minLength) + minLength
		s.stripes[i] = Stripe{colour, length}
		s.ring += float64(length)
	}

	return s
}

// RingLength is the total length of all stripes in pixels.
func (s *Stripes) RingLength() float64 {
	return s.ring
}

// SetSpeed sets how many pixels the ring travels per millisecond.
func (s *Stripes) SetSpeed(pixelsPerMs float64) {
	s.pixelsPerMs = pixelsPerMs
}

func (s *Stripes) stripeAt(offset float64) colorful.Color {
	offset = math.Mod(offset, s.ring)
	if offset < 0 {
		offset += s.ring
	}
	end := 0.0
	for _, stripe := range s.stripes {
		end += float64(stripe.length)
		if offset < end {
			return stripe.colour
		}
	}
	return s.stripes[len(s.stripes)-1].colour
}

// CalculateFrame creates a new Frame instance.
func (s *Stripes) CalculateFrame(runtimeMs int64) *Frame {
	f := NewFrame(s.numPixels)
	current := s.pixelsPerMs * float64(runtimeMs)

	adjustmentFactor := 1.0
	for i := 0; i < s.numPixels; i++ {
		if s.adjusted {
			adjustmentFactor = 1.0 + 1.4*(float64(i)/float64(s.numPixels))
		}
		f.pixels[i] = s.stripeAt(adjustmentFactor*float64(i) + current)
	}

	return f
}
