package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if cfg.Output.Width != 1024 || cfg.Output.Height != 1024 {
		t.Fatalf("unexpected default canvas %dx%d", cfg.Output.Width, cfg.Output.Height)
	}
	if cfg.Output.FPS != 10 || cfg.Output.Loop != 0 {
		t.Fatalf("unexpected playback defaults fps=%d loop=%d", cfg.Output.FPS, cfg.Output.Loop)
	}
	if cfg.Alignment.EyeXRatioLeft != 0.35 || cfg.Alignment.EyeXRatioRight != 0.65 || cfg.Alignment.EyeYRatio != 0.35 {
		t.Fatalf("unexpected eye ratios %+v", cfg.Alignment)
	}
	if !cfg.Processing.SkipExisting {
		t.Fatalf("skip_existing should default on")
	}
}

func TestLoadFromEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{"output": {"width": 512, "height": 512, "fps": 5, "name": "out.gif"}, "normalize": {"clip_limit": 3.5, "tile_grid": 4}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FACELAPSE_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Output.Width != 512 || cfg.Output.FPS != 5 || cfg.Output.Name != "out.gif" {
		t.Fatalf("file values not applied: %+v", cfg.Output)
	}
	if cfg.Normalize.ClipLimit != 3.5 || cfg.Normalize.TileGrid != 4 {
		t.Fatalf("normalize values not applied: %+v", cfg.Normalize)
	}
	// Untouched sections keep defaults.
	if cfg.Alignment.EyeXRatioRight != 0.65 {
		t.Fatalf("defaults lost on partial load: %+v", cfg.Alignment)
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	t.Setenv("FACELAPSE_CONFIG", filepath.Join(t.TempDir(), "nope.json"))
	cfg, err := Load()
	if err != nil {
		t.Fatalf("missing config file should not error, got %v", err)
	}
	if cfg.Output.Width != 1024 {
		t.Fatalf("expected defaults, got %+v", cfg.Output)
	}
}

func TestValidateRejectsBadGeometry(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.Output.Width = 0 },
		func(c *Config) { c.Output.FPS = 0 },
		func(c *Config) { c.Alignment.EyeXRatioLeft = 0.7 }, // left >= right
		func(c *Config) { c.Alignment.EyeYRatio = 1.2 },
		func(c *Config) { c.Normalize.ClipLimit = -1 },
		func(c *Config) { c.Normalize.TileGrid = 0 },
		func(c *Config) { c.Processing.JPEGQuality = 101 },
	}
	for i, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}
