package stream

import (
	"fmt"

	"github.com/matt-g-everett/lavatx/manifest"
)

// Bake samples anim at fps into a manifest of frameCount frames, each frame
// carrying its pixel colours.
func Bake(anim Animation, frameCount int, fps float64) (*manifest.Manifest, error) {
	m := new(manifest.Manifest)
	m.FPS = fps
	m.Frames = make([]manifest.FrameDescriptor, frameCount)

	stepMs := 1000.0 / fps
	for i := range m.Frames {
		f := anim.CalculateFrame(int64(float64(i) * stepMs))
		m.Frames[i] = manifest.FrameDescriptor{
			File:   fmt.Sprintf("frame_%04d", i),
			Pixels: f.Hex(),
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
