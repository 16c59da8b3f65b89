// Package control is the command protocol shared by the MQTT and websocket
// control surfaces.
package control

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/matt-g-everett/lavatx/playback"
)

// Command types.
const (
	TypePlay  = "play"
	TypePause = "pause"
	TypeSeek  = "seek"
	TypeSpeed = "speed"
	TypeFirst = "first"
	TypePrev  = "prev"
	TypeNext  = "next"
	TypeLast  = "last"
)

// ErrUnknownCommand is returned for a command type outside the protocol.
var ErrUnknownCommand = errors.New("unknown command")

// Command is a single instruction from a control surface.
type Command struct {
	Type       string   `json:"type"`
	Frame      *float64 `json:"frame,omitempty"`
	Multiplier *float64 `json:"multiplier,omitempty"`
}

// Parse decodes a command and checks it carries the arguments its type needs.
func Parse(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return cmd, fmt.Errorf("decode command: %w", err)
	}

	switch cmd.Type {
	case TypePlay, TypePause, TypeFirst, TypePrev, TypeNext, TypeLast:
	case TypeSeek:
		if cmd.Frame == nil {
			return cmd, &playback.ConfigError{Arg: "frame", Value: nil}
		}
	case TypeSpeed:
		if cmd.Multiplier == nil {
			return cmd, &playback.ConfigError{Arg: "multiplier", Value: nil}
		}
	default:
		return cmd, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}
	return cmd, nil
}

// Apply issues cmd against ctl.
func Apply(ctl playback.Control, cmd Command) error {
	switch cmd.Type {
	case TypePlay:
		return ctl.Start()
	case TypePause:
		return ctl.Stop()
	case TypeSeek:
		if cmd.Frame == nil {
			return &playback.ConfigError{Arg: "frame", Value: nil}
		}
		frame, err := playback.FrameFromFloat(*cmd.Frame)
		if err != nil {
			return err
		}
		return ctl.Seek(frame)
	case TypeSpeed:
		if cmd.Multiplier == nil {
			return &playback.ConfigError{Arg: "multiplier", Value: nil}
		}
		return ctl.SetSpeed(*cmd.Multiplier)
	case TypeFirst:
		return ctl.Seek(0)
	case TypeLast:
		if n := ctl.FrameCount(); n > 0 {
			return ctl.Seek(n - 1)
		}
		// Not loaded yet; the queued seek clamps to the last frame.
		return ctl.Seek(math.MaxInt32)
	case TypeNext:
		return ctl.Seek(ctl.CurrentFrame() + 1)
	case TypePrev:
		return ctl.Seek(ctl.CurrentFrame() - 1)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}
}

// Status reports the frame an animation is showing.
type Status struct {
	Type       string `json:"type"`
	Animation  string `json:"animation,omitempty"`
	Frame      int    `json:"frame"`
	FrameCount int    `json:"frameCount"`
}

// FrameStatus builds the status message for a frame change.
func FrameStatus(name string, ctl playback.Control, frame int) Status {
	return Status{
		Type:       "frame",
		Animation:  name,
		Frame:      frame,
		FrameCount: ctl.FrameCount(),
	}
}

// ErrorStatus reports a rejected command.
type ErrorStatus struct {
	Type      string `json:"type"`
	Animation string `json:"animation,omitempty"`
	Arg       string `json:"arg,omitempty"`
	Error     string `json:"error"`
}

// ErrorFor builds the error message for err, naming the rejected argument
// when there is one.
func ErrorFor(name string, err error) ErrorStatus {
	status := ErrorStatus{
		Type:      "error",
		Animation: name,
		Error:     err.Error(),
	}
	var cfgErr *playback.ConfigError
	if errors.As(err, &cfgErr) {
		status.Arg = cfgErr.Arg
	}
	return status
}

// Handle parses and applies one raw command, returning the error to report.
func Handle(ctl playback.Control, data []byte) error {
	cmd, err := Parse(data)
	if err != nil {
		return err
	}
	return Apply(ctl, cmd)
}
