package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	defaultConfigPath = "~/.config/facelapse/config.json"
	defaultParallel   = 4
)

// Config holds user-editable settings for the pipeline. A single Config
// value is built at startup and passed into every component; no stage
// reads process-wide state.
type Config struct {
	Paths      Paths      `json:"paths"`
	Detection  Detection  `json:"detection"`
	Alignment  Alignment  `json:"alignment"`
	Normalize  Normalize  `json:"normalize"`
	Output     Output     `json:"output"`
	Processing Processing `json:"processing"`
	Logging    Logging    `json:"logging"`
}

// Paths configures input/output locations.
type Paths struct {
	InputDir     string `json:"input_dir"`
	ProcessedDir string `json:"processed_dir"`
	OutputDir    string `json:"output_dir"`
	DatabasePath string `json:"database_path"`
}

// Detection locates the pre-trained detector and landmark model artifacts.
// Both files must exist before any processing begins.
type Detection struct {
	CascadePath       string `json:"cascade_path"`
	LandmarkModelPath string `json:"landmark_model_path"`
}

// Alignment controls where the eyes land on the output canvas.
// Ratios are fractions of canvas size: 0.0 = top/left edge, 1.0 = bottom/right.
type Alignment struct {
	EyeXRatioLeft  float64 `json:"eye_x_ratio_left"`
	EyeXRatioRight float64 `json:"eye_x_ratio_right"`
	EyeYRatio      float64 `json:"eye_y_ratio"`
}

// Normalize configures contrast-limited adaptive histogram equalization.
type Normalize struct {
	ClipLimit float64 `json:"clip_limit"`
	TileGrid  int     `json:"tile_grid"`
}

// Output configures the animation container.
type Output struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	FPS        int    `json:"fps"`
	Loop       int    `json:"loop"` // 0 = infinite
	Name       string `json:"name"`
	SaveFrames bool   `json:"save_frames"`
}

// Processing captures execution preferences.
type Processing struct {
	ParallelJobs int  `json:"parallel_jobs"`
	SkipExisting bool `json:"skip_existing"`
	JPEGQuality  int  `json:"jpeg_quality"`
}

// Logging controls logging verbosity and destinations.
type Logging struct {
	Level      string `json:"level"`  // debug, info, warn, error
	Format     string `json:"format"` // text, json
	FileOutput bool   `json:"file_output"`
	LogDir     string `json:"log_dir"`
}

// Load reads configuration from disk, falling back to defaults when no
// config file exists.
func Load() (*Config, error) {
	cfg := Default()

	configPath := os.Getenv("FACELAPSE_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	expanded, err := expandUser(configPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(expanded)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", expanded, err)
	}

	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Paths: Paths{
			InputDir:     "input",
			ProcessedDir: "processed",
			OutputDir:    "output",
			DatabasePath: filepath.Join(os.TempDir(), "facelapse.db"),
		},
		Detection: Detection{
			CascadePath:       "haarcascade_frontalface_default.xml",
			LandmarkModelPath: "lbfmodel.yaml",
		},
		Alignment: Alignment{
			// Eyes level, slightly above vertical center. Framing choice
			// for selfie-style portraits.
			EyeXRatioLeft:  0.35,
			EyeXRatioRight: 0.65,
			EyeYRatio:      0.35,
		},
		Normalize: Normalize{
			ClipLimit: 2.0,
			TileGrid:  8,
		},
		Output: Output{
			Width:  1024,
			Height: 1024,
			FPS:    10,
			Loop:   0,
			Name:   "timelapse.gif",
		},
		Processing: Processing{
			ParallelJobs: defaultParallel,
			SkipExisting: true,
			JPEGQuality:  95,
		},
		Logging: Logging{
			Level:      "info",
			Format:     "text",
			FileOutput: false,
			LogDir:     "./logs",
		},
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Output.Width <= 0 || c.Output.Height <= 0 {
		return fmt.Errorf("output size %dx%d is not positive", c.Output.Width, c.Output.Height)
	}
	if c.Output.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.Output.FPS)
	}
	a := c.Alignment
	if a.EyeXRatioLeft <= 0 || a.EyeXRatioRight >= 1 || a.EyeXRatioLeft >= a.EyeXRatioRight {
		return fmt.Errorf("eye x ratios (%.2f, %.2f) must satisfy 0 < left < right < 1", a.EyeXRatioLeft, a.EyeXRatioRight)
	}
	if a.EyeYRatio <= 0 || a.EyeYRatio >= 1 {
		return fmt.Errorf("eye y ratio %.2f must be inside (0, 1)", a.EyeYRatio)
	}
	if c.Normalize.ClipLimit <= 0 {
		return fmt.Errorf("clip limit must be positive, got %.2f", c.Normalize.ClipLimit)
	}
	if c.Normalize.TileGrid <= 0 {
		return fmt.Errorf("tile grid must be positive, got %d", c.Normalize.TileGrid)
	}
	if c.Processing.JPEGQuality < 1 || c.Processing.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality %d outside 1-100", c.Processing.JPEGQuality)
	}
	return nil
}

func expandUser(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if path == "~" {
		return home, nil
	}

	return filepath.Join(home, path[2:]), nil
}
