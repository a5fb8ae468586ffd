// Package config loads the editor's YAML configuration: row geometry,
// interaction thresholds, and logging. Every field is optional; omitted
// values fall back to the stock editor dimensions.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/glimhq/glim/internal/timeline"
)

// Config is the top-level configuration document.
type Config struct {
	LogLevel string `yaml:"logLevel"`
	Editor   Editor `yaml:"editor"`
	Window   Window `yaml:"window"`
}

// Editor holds the timeline geometry and gesture thresholds.
type Editor struct {
	BaseLaneHeight float64 `yaml:"baseLaneHeight"`
	RowPadding     float64 `yaml:"rowPadding"`
	MinRowHeight   float64 `yaml:"minRowHeight"`
	MinDuration    float64 `yaml:"minDuration"`
	DragThreshold  float64 `yaml:"dragThreshold"`
	PxPerSecond    float64 `yaml:"pxPerSecond"`
}

// Window holds the initial desktop window size.
type Window struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	m := timeline.DefaultMetrics()
	return Config{
		LogLevel: "INFO",
		Editor: Editor{
			BaseLaneHeight: m.BaseLaneHeight,
			RowPadding:     m.RowPadding,
			MinRowHeight:   m.MinRowHeight,
			MinDuration:    m.MinDuration,
			DragThreshold:  m.DragThreshold,
			PxPerSecond:    m.PxPerSecond,
		},
		Window: Window{Width: 1280, Height: 720},
	}
}

// Parse decodes YAML into a Config, filling omitted fields from Default
// and rejecting values the engine cannot work with.
func Parse(raw []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the file at path. A missing file is not an error;
// it yields the defaults.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(raw)
}

func (c Config) validate() error {
	e := c.Editor
	switch {
	case e.BaseLaneHeight <= 0:
		return fmt.Errorf("editor.baseLaneHeight must be positive, got %v", e.BaseLaneHeight)
	case e.MinRowHeight <= 0:
		return fmt.Errorf("editor.minRowHeight must be positive, got %v", e.MinRowHeight)
	case e.RowPadding < 0:
		return fmt.Errorf("editor.rowPadding must be non-negative, got %v", e.RowPadding)
	case e.MinDuration <= 0:
		return fmt.Errorf("editor.minDuration must be positive, got %v", e.MinDuration)
	case e.DragThreshold < 0:
		return fmt.Errorf("editor.dragThreshold must be non-negative, got %v", e.DragThreshold)
	case e.PxPerSecond <= 0:
		return fmt.Errorf("editor.pxPerSecond must be positive, got %v", e.PxPerSecond)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	return nil
}

// Metrics converts the editor section into the engine's metrics value.
func (c Config) Metrics() timeline.Metrics {
	return timeline.Metrics{
		BaseLaneHeight: c.Editor.BaseLaneHeight,
		RowPadding:     c.Editor.RowPadding,
		MinRowHeight:   c.Editor.MinRowHeight,
		MinDuration:    c.Editor.MinDuration,
		DragThreshold:  c.Editor.DragThreshold,
		PxPerSecond:    c.Editor.PxPerSecond,
	}
}
