package playback

import (
	"errors"
	"math"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.SpeedMultiplier != 1.0 || !cfg.AutoPlay || cfg.StartFrame != 0 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestFrameFromFloat(t *testing.T) {
	good := map[float64]int{0: 0, 12: 12, -3: -3, 1e12: math.MaxInt32}
	for in, want := range good {
		got, err := FrameFromFloat(in)
		if err != nil || got != want {
			t.Fatalf("FrameFromFloat(%v) = %d, %v; want %d", in, got, err, want)
		}
	}

	for _, in := range []float64{1.5, math.NaN(), math.Inf(-1)} {
		_, err := FrameFromFloat(in)
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) || cfgErr.Arg != "frame" {
			t.Fatalf("FrameFromFloat(%v): expected frame ConfigError, got %v", in, err)
		}
	}
}
