package playback

import (
	"context"
	"testing"
	"time"
)

func TestTickerHostFiresInRequestOrder(t *testing.T) {
	h := NewTickerHost(60)
	var order []int
	h.RequestFrame(func(ts time.Duration) { order = append(order, 1) })
	h.RequestFrame(func(ts time.Duration) { order = append(order, 2) })
	h.RequestFrame(func(ts time.Duration) { order = append(order, 3) })

	h.tick(time.Millisecond)
	if len(order) != 3 || order[0] != 1 || order[2] != 3 {
		t.Fatalf("unexpected order %v", order)
	}
	if h.Pending() != 0 {
		t.Fatalf("callbacks are one-shot, %d still pending", h.Pending())
	}
}

func TestTickerHostCancel(t *testing.T) {
	h := NewTickerHost(60)
	fired := 0
	var second FrameHandle
	h.RequestFrame(func(ts time.Duration) {
		fired++
		h.CancelFrame(second)
	})
	second = h.RequestFrame(func(ts time.Duration) { fired++ })
	third := h.RequestFrame(func(ts time.Duration) { fired++ })
	h.CancelFrame(third)

	h.tick(time.Millisecond)
	if fired != 1 {
		t.Fatalf("expected cancelled callbacks to be skipped, fired=%d", fired)
	}
}

func TestTickerHostRequestDuringTickWaits(t *testing.T) {
	h := NewTickerHost(60)
	var stamps []time.Duration
	var cb FrameCallback
	cb = func(ts time.Duration) {
		stamps = append(stamps, ts)
		h.RequestFrame(cb)
	}
	h.RequestFrame(cb)

	h.tick(10 * time.Millisecond)
	h.tick(20 * time.Millisecond)
	if len(stamps) != 2 || stamps[1] != 20*time.Millisecond {
		t.Fatalf("expected one firing per tick, got %v", stamps)
	}
	if h.Pending() != 1 {
		t.Fatalf("expected the re-registered callback pending")
	}
}

func TestTickerHostRun(t *testing.T) {
	h := NewTickerHost(500)
	fired := make(chan time.Duration, 1)
	h.RequestFrame(func(ts time.Duration) { fired <- ts })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	select {
	case ts := <-fired:
		if ts <= 0 {
			t.Fatalf("expected a positive timestamp, got %v", ts)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("callback never fired")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
}
