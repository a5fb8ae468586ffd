package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/glimhq/glim/internal/timeline"
)

func TestParseFillsDefaults(t *testing.T) {
	got, err := Parse([]byte("logLevel: DEBUG\neditor:\n  pxPerSecond: 200\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Default()
	want.LogLevel = "DEBUG"
	want.Editor.PxPerSecond = 200
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEmptyIsDefault(t *testing.T) {
	got, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff(Default(), got); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"bad yaml", "editor: ["},
		{"zero lane height", "editor:\n  baseLaneHeight: 0\n"},
		{"negative padding", "editor:\n  rowPadding: -1\n"},
		{"zero min duration", "editor:\n  minDuration: 0\n"},
		{"negative threshold", "editor:\n  dragThreshold: -2\n"},
		{"zero px per second", "editor:\n  pxPerSecond: 0\n"},
		{"zero window", "window:\n  width: 0\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := Parse([]byte(c.in)); err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", c.in)
			}
		})
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Default(), got); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glim.yaml")
	body := "logLevel: ERROR\nwindow:\n  width: 800\n  height: 600\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.LogLevel != "ERROR" || got.Window.Width != 800 || got.Window.Height != 600 {
		t.Fatalf("loaded config = %+v", got)
	}
}

func TestMetricsMirrorsEditorSection(t *testing.T) {
	cfg := Default()
	cfg.Editor.BaseLaneHeight = 30
	cfg.Editor.MinRowHeight = 64

	got := cfg.Metrics()
	want := timeline.DefaultMetrics()
	want.BaseLaneHeight = 30
	want.MinRowHeight = 64
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("metrics mismatch (-want +got):\n%s", diff)
	}
}
