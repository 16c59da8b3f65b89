package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the manifest document looked up under every asset path.
const FileName = "manifest.json"

// ErrInvalid is returned when a manifest parses but breaks its invariants.
var ErrInvalid = errors.New("invalid manifest")

// FrameDescriptor describes one frame of an animation. The scheduler only
// counts descriptors; Pixels is optional colour data used by the LED renderer.
type FrameDescriptor struct {
	File   string   `json:"file,omitempty"`
	Pixels []string `json:"pixels,omitempty"`

	raw json.RawMessage
}

// UnmarshalJSON accepts any JSON value as a frame. Objects are decoded into
// the known fields, everything else is kept verbatim.
func (d *FrameDescriptor) UnmarshalJSON(data []byte) error {
	d.raw = append(d.raw[:0], data...)
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}

	type plain FrameDescriptor
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	d.File = p.File
	d.Pixels = p.Pixels
	return nil
}

// MarshalJSON writes the original value back if the frame was not an object.
func (d FrameDescriptor) MarshalJSON() ([]byte, error) {
	trimmed := bytes.TrimSpace(d.raw)
	if len(trimmed) > 0 && trimmed[0] != '{' {
		return trimmed, nil
	}
	type plain FrameDescriptor
	return json.Marshal(plain(d))
}

// Manifest is an immutable description of an animation.
type Manifest struct {
	Frames []FrameDescriptor `json:"frames"`
	FPS    float64           `json:"fps"`
}

// FrameCount returns the number of frames.
func (m *Manifest) FrameCount() int {
	return len(m.Frames)
}

// Validate checks frameCount >= 1 and a finite, positive fps.
func (m *Manifest) Validate() error {
	if len(m.Frames) < 1 {
		return fmt.Errorf("%w: no frames", ErrInvalid)
	}
	if math.IsNaN(m.FPS) || math.IsInf(m.FPS, 0) || m.FPS <= 0 {
		return fmt.Errorf("%w: fps %v", ErrInvalid, m.FPS)
	}
	return nil
}

// Parse decodes and validates a manifest document.
func Parse(data []byte) (*Manifest, error) {
	m := new(Manifest)
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Write stores m as <dir>/manifest.json.
func Write(dir string, m *Manifest) error {
	if err := m.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, FileName), data, 0644)
}

// Source loads the manifest belonging to an asset path.
type Source interface {
	Load(ctx context.Context, assetPath string) (*Manifest, error)
}

// Fetcher reads manifests from local directories or http(s) URLs.
type Fetcher struct {
	Client *http.Client
}

// NewFetcher creates a Fetcher using client, or http.DefaultClient when nil.
func NewFetcher(client *http.Client) *Fetcher {
	f := new(Fetcher)
	f.Client = client
	if f.Client == nil {
		f.Client = http.DefaultClient
	}
	return f
}

// Load fetches <assetPath>/manifest.json.
func (f *Fetcher) Load(ctx context.Context, assetPath string) (*Manifest, error) {
	var data []byte
	var err error
	if isURL(assetPath) {
		data, err = f.fetch(ctx, strings.TrimRight(assetPath, "/")+"/"+FileName)
	} else {
		data, err = os.ReadFile(filepath.Join(assetPath, FileName))
	}
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func isURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}
