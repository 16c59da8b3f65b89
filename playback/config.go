package playback

import "math"

// Config is the caller-supplied playback configuration.
type Config struct {
	SpeedMultiplier float64 `yaml:"speed"`
	AutoPlay        bool    `yaml:"autoPlay"`
	StartFrame      int     `yaml:"startFrame"`
}

// DefaultConfig returns speed 1.0, autoplay on, starting at frame 0.
func DefaultConfig() Config {
	return Config{
		SpeedMultiplier: 1.0,
		AutoPlay:        true,
		StartFrame:      0,
	}
}

// Validate rejects non-positive or non-finite speeds.
func (c Config) Validate() error {
	return validateSpeed(c.SpeedMultiplier)
}

func validateSpeed(m float64) error {
	if math.IsNaN(m) || math.IsInf(m, 0) || m <= 0 {
		return &ConfigError{Arg: "speedMultiplier", Value: m}
	}
	return nil
}

// FrameFromFloat converts a wire-level frame number into a seek target,
// rejecting non-finite and fractional values.
func FrameFromFloat(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, &ConfigError{Arg: "frame", Value: f}
	}
	if f > math.MaxInt32 {
		return math.MaxInt32, nil
	}
	if f < math.MinInt32 {
		return math.MinInt32, nil
	}
	return int(f), nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
