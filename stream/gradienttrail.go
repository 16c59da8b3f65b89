package stream

import (
	"math"
)

// A GradientTrail is an Animation that cycles a gradient along an led strip.
type GradientTrail struct {
	gradient    GradientTable
	numPixels   int
	trailLength int
	pixelsPerMs float64
}

// NewGradientTrail creates an instance of a GradientTrail object.
func NewGradientTrail(gradient GradientTable, numPixels int, trailLength int, pixelsPerMs float64) *GradientTrail {
	g := new(GradientTrail)
	g.gradient = gradient
	g.numPixels = numPixels
	g.trailLength = trailLength
	g.pixelsPerMs = pixelsPerMs

	return g
}

// CalculateFrame creates a new Frame instance.
func (g *GradientTrail) CalculateFrame(runtimeMs int64) *Frame {
	f := NewFrame(g.numPixels)
	saturation := 1.0
	luminance := 0.05
	trail := float64(g.trailLength)
	current := math.Mod(g.pixelsPerMs*float64(runtimeMs), trail)
	for i := 0; i < g.numPixels; i++ {
		t := math.Mod(float64(i+g.numPixels)-current+trail, trail) / trail
		f.pixels[i] = g.gradient.GetColor(t, saturation, luminance)
	}

	return f
}
