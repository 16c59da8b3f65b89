package playback

import "time"

// An advancer moves the frame index forward while playback runs. The
// scheduler holds at most one at a time and calls start/stop with its lock
// held.
type advancer interface {
	start()
	stop()
	state() State
}

// nativeAdvancer hands ticking to the renderer, whose fixed rate already
// matches a multiplier of 1.0.
type nativeAdvancer struct {
	renderer Renderer
}

func newNativeAdvancer(renderer Renderer) *nativeAdvancer {
	a := new(nativeAdvancer)
	a.renderer = renderer
	return a
}

func (a *nativeAdvancer) start() {
	a.renderer.Play()
}

func (a *nativeAdvancer) stop() {
	a.renderer.Pause()
}

func (a *nativeAdvancer) state() State {
	return NativePlaying
}

// scheduledAdvancer drives the frame index from host refresh callbacks at
// fps × multiplier, carrying the sub-frame remainder between callbacks.
type scheduledAdvancer struct {
	s             *Scheduler
	frameDuration time.Duration
	frameCount    int
	last          time.Duration
	handle        FrameHandle
	running       bool
}

func newScheduledAdvancer(s *Scheduler, fps float64, multiplier float64, frameCount int) *scheduledAdvancer {
	a := new(scheduledAdvancer)
	a.s = s
	a.frameDuration = frameDuration(fps, multiplier)
	a.frameCount = frameCount
	return a
}

// frameDuration truncates to whole nanoseconds so that integer division of
// elapsed time stays exact for round rates (1s/60 fits 12 times in 200ms).
func frameDuration(fps float64, multiplier float64) time.Duration {
	d := time.Duration(float64(time.Second) / (fps * multiplier))
	if d < 1 {
		d = 1
	}
	return d
}

func (a *scheduledAdvancer) start() {
	a.s.renderer.Pause()
	a.running = true
	a.last = a.s.host.Now()
	a.handle = a.s.host.RequestFrame(a.onFrame)
}

func (a *scheduledAdvancer) stop() {
	a.running = false
	if a.handle != 0 {
		a.s.host.CancelFrame(a.handle)
		a.handle = 0
	}
	a.s.renderer.Pause()
}

func (a *scheduledAdvancer) state() State {
	return ScheduledPlaying
}

func (a *scheduledAdvancer) onFrame(ts time.Duration) {
	s := a.s
	s.mu.Lock()
	if !a.running || s.active != a {
		s.mu.Unlock()
		return
	}
	a.handle = 0

	current := s.renderer.FrameIndex()
	if next, ok := a.advance(ts, current); ok && next != current {
		s.writeFrame(next)
		s.events = append(s.events, next)
	}

	a.handle = s.host.RequestFrame(a.onFrame)
	events := s.takeEvents()
	s.mu.Unlock()

	s.emit(events)
}

// advance commits every whole frame elapsed since the last commit, wrapping
// around the animation. It never steps through the skipped frames.
func (a *scheduledAdvancer) advance(ts time.Duration, current int) (int, bool) {
	elapsed := ts - a.last
	if elapsed < a.frameDuration {
		return current, false
	}

	steps := int64(elapsed / a.frameDuration)
	a.last = ts - elapsed%a.frameDuration

	count := int64(a.frameCount)
	next := (int64(current)%count + steps%count) % count
	if next < 0 {
		next += count
	}
	return int(next), true
}
