package playback

import "context"

// Renderer is the rendering backend the scheduler drives. It owns the frame
// index; Play and Pause start and stop its own fixed-rate ticking at the
// manifest's base fps.
type Renderer interface {
	LoadAsset(ctx context.Context, assetPath string) error
	FrameIndex() int
	SetFrameIndex(index int)
	Play()
	Pause()
}

// Redrawer is implemented by renderers that can set the frame index and
// display it immediately, without waiting for their next native tick.
type Redrawer interface {
	RedrawAt(index int)
}

// FrameNotifier is implemented by renderers that report the frames their
// native ticking advances to.
type FrameNotifier interface {
	SetFrameListener(fn func(index int))
}

// Control is the handle a control surface holds on an animation.
type Control interface {
	Start() error
	Stop() error
	Seek(frame int) error
	SetSpeed(multiplier float64) error
	CurrentFrame() int
	FrameCount() int
	Subscribe(fn func(frame int)) (cancel func())
}
