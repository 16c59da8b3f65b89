package stream

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/matt-g-everett/lavatx/manifest"
)

// FrameSender displays a frame.
type FrameSender interface {
	SendFrame(f *Frame) error
}

// Renderer plays a manifest's frames onto an LED strip. Play ticks the frame
// index forward at the manifest's fps, looping; Pause stops it.
//
// Frames are published from a goroutine of their own. Only the newest
// undelivered frame is kept, so a slow sender drops frames instead of
// blocking the caller, and frames go out in the order the index moved.
type Renderer struct {
	mu        sync.Mutex
	source    manifest.Source
	sender    FrameSender
	numPixels int
	logger    *slog.Logger

	frames   []*Frame
	interval time.Duration
	index    int
	playing  bool
	gen      uint64
	listener func(index int)

	pending   *Frame
	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewRenderer creates a Renderer sending numPixels-wide frames to sender.
func NewRenderer(source manifest.Source, sender FrameSender, numPixels int, logger *slog.Logger) *Renderer {
	r := new(Renderer)
	r.source = source
	r.sender = sender
	r.numPixels = numPixels
	r.logger = logger
	r.wake = make(chan struct{}, 1)
	r.done = make(chan struct{})
	go r.sendLoop()
	return r
}

// Close stops the send goroutine. An undelivered frame is dropped.
func (r *Renderer) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.playing = false
		r.gen++
		r.mu.Unlock()
		close(r.done)
	})
}

// LoadAsset loads and converts every frame of the asset's manifest. The
// previous asset keeps playing if loading fails.
func (r *Renderer) LoadAsset(ctx context.Context, assetPath string) error {
	m, err := r.source.Load(ctx, assetPath)
	if err != nil {
		return err
	}

	frames := make([]*Frame, m.FrameCount())
	for i, d := range m.Frames {
		f, err := FrameFromDescriptor(d, r.numPixels)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		frames[i] = f
	}

	r.mu.Lock()
	r.playing = false
	r.gen++
	r.frames = frames
	r.interval = time.Duration(float64(time.Second) / m.FPS)
	r.index = 0
	r.mu.Unlock()
	return nil
}

// FrameIndex returns the displayed frame.
func (r *Renderer) FrameIndex() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.index
}

// SetFrameIndex moves to index without drawing; it shows on the next tick.
func (r *Renderer) SetFrameIndex(index int) {
	r.mu.Lock()
	r.index = r.bound(index)
	r.mu.Unlock()
}

// RedrawAt moves to index and queues that frame for sending.
func (r *Renderer) RedrawAt(index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index = r.bound(index)
	if len(r.frames) > 0 {
		r.queueLocked(r.frames[r.index])
	}
}

// SetFrameListener registers the callback for frames reached by ticking.
func (r *Renderer) SetFrameListener(fn func(index int)) {
	r.mu.Lock()
	r.listener = fn
	r.mu.Unlock()
}

// Play starts ticking. It does nothing before an asset is loaded.
func (r *Renderer) Play() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.playing || len(r.frames) == 0 {
		return
	}
	r.playing = true
	r.gen++
	go r.run(r.gen, r.interval)
}

// Pause stops ticking.
func (r *Renderer) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.playing {
		r.playing = false
		r.gen++
	}
}

func (r *Renderer) run(gen uint64, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		r.mu.Lock()
		if !r.playing || r.gen != gen {
			r.mu.Unlock()
			return
		}
		r.index = (r.index + 1) % len(r.frames)
		index := r.index
		r.queueLocked(r.frames[index])
		listener := r.listener
		r.mu.Unlock()

		if listener != nil {
			listener(index)
		}
	}
}

// queueLocked replaces any undelivered frame with f.
func (r *Renderer) queueLocked(f *Frame) {
	r.pending = f
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Renderer) sendLoop() {
	for {
		select {
		case <-r.done:
			return
		case <-r.wake:
		}

		r.mu.Lock()
		f := r.pending
		r.pending = nil
		r.mu.Unlock()

		if f == nil {
			continue
		}
		if err := r.sender.SendFrame(f); err != nil {
			r.logger.Warn("frame send failed", "error", err)
		}
	}
}

func (r *Renderer) bound(index int) int {
	if len(r.frames) == 0 || index < 0 {
		return 0
	}
	if index >= len(r.frames) {
		return len(r.frames) - 1
	}
	return index
}
