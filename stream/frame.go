package stream

import (
	"encoding/binary"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/matt-g-everett/lavatx/manifest"
)

// DefaultPixels is the length of the LED strip on an ledrx device.
const DefaultPixels = 500

// MaxPixels is the most pixels a frame header can describe.
const MaxPixels = 1<<16 - 1

// Frame represents a frame of RGB pixels to display on an ledrx device.
type Frame struct {
	pixels []colorful.Color
}

// NewFrame creates a black Frame of numPixels pixels.
func NewFrame(numPixels int) *Frame {
	f := new(Frame)
	f.pixels = make([]colorful.Color, numPixels)
	return f
}

// FrameFromDescriptor builds a Frame from a manifest frame's colour list.
// The list is repeated along the strip; a frame without colours is black.
func FrameFromDescriptor(d manifest.FrameDescriptor, numPixels int) (*Frame, error) {
	f := NewFrame(numPixels)
	if len(d.Pixels) == 0 {
		return f, nil
	}

	colours := make([]colorful.Color, len(d.Pixels))
	for i, hex := range d.Pixels {
		c, err := colorful.Hex(hex)
		if err != nil {
			return nil, fmt.Errorf("pixel %d: %w", i, err)
		}
		colours[i] = c
	}
	for i := range f.pixels {
		f.pixels[i] = colours[i%len(colours)]
	}
	return f, nil
}

// Len returns the number of pixels.
func (f *Frame) Len() int {
	return len(f.pixels)
}

// Hex returns the pixels as #rrggbb strings.
func (f *Frame) Hex() []string {
	out := make([]string, len(f.pixels))
	for i, p := range f.pixels {
		out[i] = p.Clamped().Hex()
	}
	return out
}

// InterpolateFrame merges two frames of the same length.
func (f *Frame) InterpolateFrame(f2 *Frame, transitionPoint float64) *Frame {
	out := NewFrame(len(f.pixels))
	for i := 0; i < len(f.pixels); i++ {
		out.pixels[i] = f.pixels[i].BlendHcl(f2.pixels[i], transitionPoint)
	}

	return out
}

// MarshalBinary converts a Frame into binary data.
func (f *Frame) MarshalBinary() (data []byte, err error) {
	if len(f.pixels) > MaxPixels {
		return nil, fmt.Errorf("frame has %d pixels, max %d", len(f.pixels), MaxPixels)
	}
	data = make([]byte, 2, (len(f.pixels)*3)+2)
	binary.LittleEndian.PutUint16(data, uint16(len(f.pixels)))
	for _, p := range f.pixels {
		r, g, b := p.Clamped().RGB255()
		data = append(data, r, g, b)
	}

	return data, nil
}
