package manifest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

const trophy = `{
  "fps": 30,
  "frames": [
    {"file": "f0.png"},
    {"file": "f1.png", "pixels": ["#ff0000", "#00ff00"]},
    "f2.png",
    7
  ]
}`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(trophy))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.FrameCount() != 4 {
		t.Fatalf("expected 4 frames, got %d", m.FrameCount())
	}
	if m.FPS != 30 {
		t.Fatalf("expected fps 30, got %v", m.FPS)
	}
	if m.Frames[1].File != "f1.png" || len(m.Frames[1].Pixels) != 2 {
		t.Fatalf("unexpected frame 1: %+v", m.Frames[1])
	}
	if m.Frames[2].File != "" {
		t.Fatalf("string frame should not populate fields, got %+v", m.Frames[2])
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"no frames": `{"fps": 30, "frames": []}`,
		"zero fps":  `{"fps": 0, "frames": [1]}`,
		"neg fps":   `{"fps": -12, "frames": [1]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}

	if _, err := Parse([]byte(`{"fps": `)); err == nil {
		t.Fatalf("expected syntax error")
	}
}

func TestWriteRoundTripKeepsNonObjectFrames(t *testing.T) {
	m, err := Parse([]byte(trophy))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	dir := t.TempDir()
	if err := Write(dir, m); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := NewFetcher(nil).Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.FrameCount() != 4 {
		t.Fatalf("expected 4 frames, got %d", got.FrameCount())
	}
	if string(got.Frames[3].raw) != "7" {
		t.Fatalf("expected numeric frame kept, got %s", got.Frames[3].raw)
	}
}

func TestFetcherLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(trophy), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := NewFetcher(nil).Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.FrameCount() != 4 {
		t.Fatalf("expected 4 frames, got %d", m.FrameCount())
	}

	if _, err := NewFetcher(nil).Load(context.Background(), filepath.Join(dir, "missing")); err == nil {
		t.Fatalf("expected error for missing manifest")
	}
}

func TestFetcherLoadHTTP(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/animations/trophy/manifest.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(trophy))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewFetcher(srv.Client())
	m, err := f.Load(context.Background(), srv.URL+"/animations/trophy/")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.FrameCount() != 4 {
		t.Fatalf("expected 4 frames, got %d", m.FrameCount())
	}

	if _, err := f.Load(context.Background(), srv.URL+"/animations/missing"); err == nil {
		t.Fatalf("expected error for 404")
	}
}
