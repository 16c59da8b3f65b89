package playback

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/matt-g-everett/lavatx/logging"
	"github.com/matt-g-everett/lavatx/manifest"
)

type fakeRenderer struct {
	index    int
	playing  bool
	plays    int
	pauses   int
	loaded   []string
	loadErr  error
	listener func(int)
}

func (r *fakeRenderer) LoadAsset(ctx context.Context, assetPath string) error {
	r.loaded = append(r.loaded, assetPath)
	if r.loadErr != nil {
		return r.loadErr
	}
	r.index = 0
	return nil
}

func (r *fakeRenderer) FrameIndex() int         { return r.index }
func (r *fakeRenderer) SetFrameIndex(index int) { r.index = index }

func (r *fakeRenderer) Play() {
	r.playing = true
	r.plays++
}

func (r *fakeRenderer) Pause() {
	r.playing = false
	r.pauses++
}

func (r *fakeRenderer) SetFrameListener(fn func(int)) { r.listener = fn }

type redrawingRenderer struct {
	fakeRenderer
	redraws int
}

func (r *redrawingRenderer) RedrawAt(index int) {
	r.index = index
	r.redraws++
}

// manualHost only fires callbacks when the test asks it to.
type manualHost struct {
	now     time.Duration
	next    FrameHandle
	pending map[FrameHandle]FrameCallback
}

func newManualHost() *manualHost {
	return &manualHost{pending: make(map[FrameHandle]FrameCallback)}
}

func (h *manualHost) Now() time.Duration { return h.now }

func (h *manualHost) RequestFrame(cb FrameCallback) FrameHandle {
	h.next++
	h.pending[h.next] = cb
	return h.next
}

func (h *manualHost) CancelFrame(handle FrameHandle) {
	delete(h.pending, handle)
}

// advance moves the clock forward by d and fires one refresh.
func (h *manualHost) advance(d time.Duration) {
	h.now += d
	h.fire()
}

func (h *manualHost) fire() {
	handles := make([]FrameHandle, 0, len(h.pending))
	for handle := range h.pending {
		handles = append(handles, handle)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	for _, handle := range handles {
		cb, ok := h.pending[handle]
		delete(h.pending, handle)
		if ok {
			cb(h.now)
		}
	}
}

type sourceFunc func(ctx context.Context, assetPath string) (*manifest.Manifest, error)

func (f sourceFunc) Load(ctx context.Context, assetPath string) (*manifest.Manifest, error) {
	return f(ctx, assetPath)
}

func newManifest(frames int, fps float64) *manifest.Manifest {
	return &manifest.Manifest{
		Frames: make([]manifest.FrameDescriptor, frames),
		FPS:    fps,
	}
}

func staticSource(m *manifest.Manifest) sourceFunc {
	return func(ctx context.Context, assetPath string) (*manifest.Manifest, error) {
		return m, nil
	}
}

func stoppedConfig(speed float64) Config {
	cfg := DefaultConfig()
	cfg.SpeedMultiplier = speed
	cfg.AutoPlay = false
	return cfg
}

// newLoaded returns a scheduler that has loaded a frames/fps manifest.
func newLoaded(t *testing.T, frames int, fps float64, cfg Config) (*Scheduler, *fakeRenderer, *manualHost) {
	t.Helper()
	r := new(fakeRenderer)
	h := newManualHost()
	s, err := NewScheduler(r, h, staticSource(newManifest(frames, fps)), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	if err := s.Load(context.Background(), "animations/test"); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s, r, h
}

// record collects frame notifications.
func record(s *Scheduler) *[]int {
	var frames []int
	s.Subscribe(func(frame int) { frames = append(frames, frame) })
	return &frames
}
