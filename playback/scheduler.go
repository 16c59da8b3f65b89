package playback

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/matt-g-everett/lavatx/manifest"
)

// State is the scheduler's playback state.
type State int

const (
	Stopped State = iota
	NativePlaying
	ScheduledPlaying
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case NativePlaying:
		return "native"
	case ScheduledPlaying:
		return "scheduled"
	default:
		return "unknown"
	}
}

// pending holds commands issued before Load completes. Only the last
// play/pause and the last seek survive, so it never grows.
type pending struct {
	seek    int
	hasSeek bool
	play    bool
	hasPlay bool
}

type subscriber struct {
	id int
	fn func(frame int)
}

// Scheduler plays a manifest through a Renderer at fps × speed multiplier.
//
// A multiplier of exactly 1.0 delegates ticking to the renderer. Any other
// multiplier is driven from Host refresh callbacks. The renderer stays the
// only owner of the frame index; the scheduler reads and writes through it.
//
// Commands issued before Load completes are held and replayed once it does:
// the last seek first, then the last play or pause. All methods are safe for concurrent use; frame listeners run
// outside the scheduler's lock.
type Scheduler struct {
	loadMu    sync.Mutex
	mu        sync.Mutex
	renderer  Renderer
	redrawer  Redrawer
	host      Host
	source    manifest.Source
	logger    *slog.Logger
	cfg       Config
	manifest  *manifest.Manifest
	assetPath string
	state     State
	active    advancer
	queued    pending
	loadGen   uint64
	loaded    bool
	closed    bool
	events    []int

	subMu   sync.Mutex
	subs    []subscriber
	nextSub int
}

var _ Control = (*Scheduler)(nil)

// NewScheduler creates a Stopped scheduler. Nothing plays until Load succeeds.
func NewScheduler(renderer Renderer, host Host, source manifest.Source, cfg Config, logger *slog.Logger) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := new(Scheduler)
	s.renderer = renderer
	s.host = host
	s.source = source
	s.cfg = cfg
	s.logger = logger
	s.state = Stopped

	if r, ok := renderer.(Redrawer); ok {
		s.redrawer = r
	}
	if n, ok := renderer.(FrameNotifier); ok {
		n.SetFrameListener(s.nativeFrame)
	}

	return s, nil
}

// Load fetches the manifest for assetPath and has the renderer load the
// asset. A scheduler that is already showing an asset is torn down first.
// On success the start frame is applied, autoplay honoured and held
// commands replayed. On failure the scheduler stays Stopped and commands
// keep queueing until a later Load succeeds. Loads run one at a time.
func (s *Scheduler) Load(ctx context.Context, assetPath string) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.teardownLocked()
	s.loadGen++
	gen := s.loadGen
	s.mu.Unlock()

	m, err := s.source.Load(ctx, assetPath)
	if err != nil {
		s.logger.Error("manifest load failed", "asset", assetPath, "error", err)
		return &LoadError{AssetPath: assetPath, Kind: ErrManifestLoad, Err: err}
	}
	if err := s.renderer.LoadAsset(ctx, assetPath); err != nil {
		s.logger.Error("renderer load failed", "asset", assetPath, "error", err)
		return &LoadError{AssetPath: assetPath, Kind: ErrAdapterLoad, Err: err}
	}

	s.mu.Lock()
	if s.closed || gen != s.loadGen {
		s.mu.Unlock()
		s.renderer.Pause()
		s.logger.Debug("closed during load", "asset", assetPath)
		return ErrClosed
	}

	s.manifest = m
	s.assetPath = assetPath
	s.loaded = true
	s.logger.Info("asset loaded", "asset", assetPath, "frames", m.FrameCount(), "fps", m.FPS)

	start := clamp(s.cfg.StartFrame, 0, m.FrameCount()-1)
	s.writeFrame(start)
	s.events = append(s.events, start)

	if s.cfg.AutoPlay {
		s.startLocked()
	}

	q := s.queued
	s.queued = pending{}
	if q.hasSeek {
		s.seekLocked(q.seek)
	}
	if q.hasPlay {
		if q.play {
			s.startLocked()
		} else {
			s.stopLocked()
		}
	}

	events := s.takeEvents()
	s.mu.Unlock()

	s.emit(events)
	return nil
}

// LoadRetry calls Load until it succeeds, doubling the wait between failed
// attempts from minDelay up to maxDelay. It gives up when ctx is done or the
// scheduler is closed. Commands stay held while it waits.
func (s *Scheduler) LoadRetry(ctx context.Context, assetPath string, minDelay, maxDelay time.Duration) error {
	delay := max(minDelay, time.Millisecond)
	for {
		err := s.Load(ctx, assetPath)
		if err == nil || errors.Is(err, ErrClosed) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("retrying load", "asset", assetPath, "delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = min(delay*2, max(maxDelay, delay))
	}
}

// Start begins playback. It is a no-op while already playing.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.startLocked()
	return nil
}

func (s *Scheduler) startLocked() {
	if !s.loaded {
		s.queued.play, s.queued.hasPlay = true, true
		return
	}
	if s.state != Stopped {
		return
	}
	s.runLocked()
}

// runLocked activates the advancer matching the current multiplier.
func (s *Scheduler) runLocked() {
	if s.cfg.SpeedMultiplier == 1.0 {
		s.active = newNativeAdvancer(s.renderer)
	} else {
		s.active = newScheduledAdvancer(s, s.manifest.FPS, s.cfg.SpeedMultiplier, s.manifest.FrameCount())
	}
	s.active.start()
	s.state = s.active.state()
	s.logger.Debug("playback started", "asset", s.assetPath, "state", s.state, "speed", s.cfg.SpeedMultiplier)
}

// Stop pauses playback. Calling it repeatedly has no further effect.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if !s.loaded {
		s.queued.play, s.queued.hasPlay = false, true
		return nil
	}
	s.stopLocked()
	return nil
}

// stopLocked cancels the active advancer (its pending callback first) and
// pauses the renderer.
func (s *Scheduler) stopLocked() {
	if s.active != nil {
		s.active.stop()
		s.active = nil
	} else {
		s.renderer.Pause()
	}
	if s.state != Stopped {
		s.logger.Debug("playback stopped", "asset", s.assetPath)
	}
	s.state = Stopped
}

// Seek clamps frame into the manifest's bounds, displays it and notifies
// listeners. Playback, if running, continues from the new frame.
func (s *Scheduler) Seek(frame int) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if !s.loaded {
		s.queued.seek, s.queued.hasSeek = frame, true
		s.mu.Unlock()
		return nil
	}
	s.seekLocked(frame)
	events := s.takeEvents()
	s.mu.Unlock()

	s.emit(events)
	return nil
}

func (s *Scheduler) seekLocked(frame int) {
	index := clamp(frame, 0, s.manifest.FrameCount()-1)
	s.writeFrame(index)
	if s.state == NativePlaying && s.redrawer == nil {
		// Renderers without Redrawer only draw on a native tick.
		s.renderer.Pause()
		s.renderer.Play()
	}
	s.events = append(s.events, index)
}

// SetSpeed changes the multiplier. While playing, the advancer is swapped
// in place; the frame index is untouched by the swap. A rejected multiplier
// leaves the previous one in effect.
func (s *Scheduler) SetSpeed(multiplier float64) error {
	if err := validateSpeed(multiplier); err != nil {
		s.logger.Warn("rejected speed", "multiplier", multiplier)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if multiplier == s.cfg.SpeedMultiplier {
		return nil
	}
	s.cfg.SpeedMultiplier = multiplier

	if s.state == Stopped {
		return nil
	}
	s.active.stop()
	s.active = nil
	s.runLocked()
	return nil
}

// CurrentFrame returns the renderer's frame index.
func (s *Scheduler) CurrentFrame() int {
	return s.renderer.FrameIndex()
}

// FrameCount returns the loaded manifest's frame count, or 0 before Load.
func (s *Scheduler) FrameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.manifest == nil {
		return 0
	}
	return s.manifest.FrameCount()
}

// State returns the current playback state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Speed returns the configured multiplier.
func (s *Scheduler) Speed() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.SpeedMultiplier
}

// Close cancels any pending callback, pauses the renderer and rejects all
// further commands. An in-flight Load returns ErrClosed.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.teardownLocked()
	s.closed = true
	s.loadGen++
	s.queued = pending{}
	return nil
}

func (s *Scheduler) teardownLocked() {
	s.stopLocked()
	s.loaded = false
	s.manifest = nil
}

// Subscribe registers fn for frame-change notifications.
func (s *Scheduler) Subscribe(fn func(frame int)) (cancel func()) {
	s.subMu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// writeFrame sets and displays index, preferring an explicit redraw.
func (s *Scheduler) writeFrame(index int) {
	if s.redrawer != nil {
		s.redrawer.RedrawAt(index)
		return
	}
	s.renderer.SetFrameIndex(index)
}

func (s *Scheduler) takeEvents() []int {
	events := s.events
	s.events = nil
	return events
}

// nativeFrame reports a renderer tick. A tick racing Stop or SetSpeed is
// dropped once the scheduler has left NativePlaying.
func (s *Scheduler) nativeFrame(index int) {
	s.mu.Lock()
	native := s.state == NativePlaying
	s.mu.Unlock()
	if native {
		s.emit([]int{index})
	}
}

func (s *Scheduler) emit(events []int) {
	if len(events) == 0 {
		return
	}
	s.subMu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, frame := range events {
		for _, sub := range subs {
			sub.fn(frame)
		}
	}
}
