package playback

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is wrapped by every *ConfigError.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrManifestLoad marks a failure fetching or parsing the manifest.
	ErrManifestLoad = errors.New("manifest load failed")
	// ErrAdapterLoad marks a failure of the renderer loading the asset.
	ErrAdapterLoad = errors.New("renderer load failed")
	// ErrClosed is returned by commands issued after Close.
	ErrClosed = errors.New("scheduler closed")
)

// ConfigError reports which argument was rejected.
type ConfigError struct {
	Arg   string
	Value any
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s=%v", ErrInvalidConfiguration, e.Arg, e.Value)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfiguration
}

// LoadError carries the asset path and the kind (ErrManifestLoad or
// ErrAdapterLoad) of a failed Load.
type LoadError struct {
	AssetPath string
	Kind      error
	Err       error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.AssetPath, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
