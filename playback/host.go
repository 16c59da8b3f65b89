package playback

import (
	"context"
	"sort"
	"sync"
	"time"
)

// FrameCallback receives the host timestamp of the refresh it runs in.
type FrameCallback func(ts time.Duration)

// FrameHandle identifies a pending callback. The zero handle is never issued.
type FrameHandle uint64

// Host supplies one-shot per-refresh callbacks and a monotonic clock.
type Host interface {
	Now() time.Duration
	RequestFrame(cb FrameCallback) FrameHandle
	CancelFrame(h FrameHandle)
}

// TickerHost fires pending callbacks once per refresh from a single goroutine.
type TickerHost struct {
	mu      sync.Mutex
	epoch   time.Time
	period  time.Duration
	next    FrameHandle
	pending map[FrameHandle]FrameCallback
}

// NewTickerHost creates a TickerHost refreshing refreshHz times a second.
func NewTickerHost(refreshHz float64) *TickerHost {
	if refreshHz <= 0 {
		refreshHz = 60
	}
	h := new(TickerHost)
	h.epoch = time.Now()
	h.period = time.Duration(float64(time.Second) / refreshHz)
	h.pending = make(map[FrameHandle]FrameCallback)
	return h
}

// Now returns the time since the host was created.
func (h *TickerHost) Now() time.Duration {
	return time.Since(h.epoch)
}

// RequestFrame registers cb for the next refresh.
func (h *TickerHost) RequestFrame(cb FrameCallback) FrameHandle {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	h.pending[h.next] = cb
	return h.next
}

// CancelFrame drops a pending callback. Unknown handles are ignored.
func (h *TickerHost) CancelFrame(handle FrameHandle) {
	h.mu.Lock()
	delete(h.pending, handle)
	h.mu.Unlock()
}

// Pending returns the number of callbacks waiting for the next refresh.
func (h *TickerHost) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pending)
}

// Run drives refreshes until ctx is done.
func (h *TickerHost) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			h.tick(now.Sub(h.epoch))
		}
	}
}

// tick fires every callback registered before it started, in request order.
// Callbacks requested while firing wait for the following tick.
func (h *TickerHost) tick(ts time.Duration) {
	h.mu.Lock()
	handles := make([]FrameHandle, 0, len(h.pending))
	for handle := range h.pending {
		handles = append(handles, handle)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	h.mu.Unlock()

	for _, handle := range handles {
		h.mu.Lock()
		cb, ok := h.pending[handle]
		delete(h.pending, handle)
		h.mu.Unlock()
		if ok {
			cb(ts)
		}
	}
}
