package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"

	"github.com/banshee-data/bufferbench/internal/fsutil"
)

// ErrInvalidConfiguration is returned for unknown selectors (plot kinds,
// replay modes) and for configuration values outside their valid range.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// DefaultConfigPath is the path to the canonical analysis defaults file.
const DefaultConfigPath = "config/analysis.defaults.json"

const maxConfigFileSize = 1 * 1024 * 1024 // 1MB

// AnalysisConfig represents the root configuration for the analysis and
// replay tools. Every field is optional; the Get* accessors supply defaults
// for anything the file omits, so partial configs are safe.
type AnalysisConfig struct {
	// Windowing
	StartAtSecs      *float64 `json:"start_at_secs,omitempty"`
	MaxDurationSecs  *float64 `json:"max_duration_secs,omitempty"`
	RequireAscending *bool    `json:"require_ascending,omitempty"`

	// Rendering
	HistogramBins    *int     `json:"histogram_bins,omitempty"`
	PlotWidthInches  *float64 `json:"plot_width_inches,omitempty"`
	PlotHeightInches *float64 `json:"plot_height_inches,omitempty"`

	// Replay
	ScanStride    *int `json:"scan_stride,omitempty"`
	ProgressEvery *int `json:"progress_every,omitempty"`
}

// EmptyAnalysisConfig returns an AnalysisConfig with all fields set to nil.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadAnalysisConfig(fsys fsutil.FileSystem, path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAnalysisConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *AnalysisConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/tools/x/
	}
	fsys := fsutil.OSFileSystem{}
	for _, path := range candidates {
		if cfg, err := LoadAnalysisConfig(fsys, path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configured values are usable.
func (c *AnalysisConfig) Validate() error {
	if c.StartAtSecs != nil {
		if math.IsNaN(*c.StartAtSecs) || math.IsInf(*c.StartAtSecs, 0) {
			return fmt.Errorf("%w: start_at_secs must be finite, got %f", ErrInvalidConfiguration, *c.StartAtSecs)
		}
	}

	if c.MaxDurationSecs != nil {
		if math.IsNaN(*c.MaxDurationSecs) || math.IsInf(*c.MaxDurationSecs, 0) || *c.MaxDurationSecs < 0 {
			return fmt.Errorf("%w: max_duration_secs must be finite and non-negative, got %f", ErrInvalidConfiguration, *c.MaxDurationSecs)
		}
	}

	if c.HistogramBins != nil && *c.HistogramBins < 1 {
		return fmt.Errorf("%w: histogram_bins must be at least 1, got %d", ErrInvalidConfiguration, *c.HistogramBins)
	}

	if c.PlotWidthInches != nil && *c.PlotWidthInches <= 0 {
		return fmt.Errorf("%w: plot_width_inches must be positive, got %f", ErrInvalidConfiguration, *c.PlotWidthInches)
	}
	if c.PlotHeightInches != nil && *c.PlotHeightInches <= 0 {
		return fmt.Errorf("%w: plot_height_inches must be positive, got %f", ErrInvalidConfiguration, *c.PlotHeightInches)
	}

	if c.ScanStride != nil && *c.ScanStride < 1 {
		return fmt.Errorf("%w: scan_stride must be at least 1, got %d", ErrInvalidConfiguration, *c.ScanStride)
	}
	if c.ProgressEvery != nil && *c.ProgressEvery < 0 {
		return fmt.Errorf("%w: progress_every must be non-negative, got %d", ErrInvalidConfiguration, *c.ProgressEvery)
	}

	return nil
}

// GetStartAtSecs returns the start_at_secs value or the default.
func (c *AnalysisConfig) GetStartAtSecs() float64 {
	if c.StartAtSecs == nil {
		return 20.0 // skip device setup time
	}
	return *c.StartAtSecs
}

// GetMaxDurationSecs returns the max_duration_secs value or the default.
func (c *AnalysisConfig) GetMaxDurationSecs() float64 {
	if c.MaxDurationSecs == nil {
		return 60.0
	}
	return *c.MaxDurationSecs
}

// GetRequireAscending returns the require_ascending value or the default.
func (c *AnalysisConfig) GetRequireAscending() bool {
	if c.RequireAscending == nil {
		return true
	}
	return *c.RequireAscending
}

// GetHistogramBins returns the histogram_bins value or the default.
func (c *AnalysisConfig) GetHistogramBins() int {
	if c.HistogramBins == nil {
		return 10
	}
	return *c.HistogramBins
}

// GetPlotWidthInches returns the plot_width_inches value or the default.
func (c *AnalysisConfig) GetPlotWidthInches() float64 {
	if c.PlotWidthInches == nil {
		return 10.0
	}
	return *c.PlotWidthInches
}

// GetPlotHeightInches returns the plot_height_inches value or the default.
func (c *AnalysisConfig) GetPlotHeightInches() float64 {
	if c.PlotHeightInches == nil {
		return 6.0
	}
	return *c.PlotHeightInches
}

// GetScanStride returns the scan_stride value or the default (marker length).
func (c *AnalysisConfig) GetScanStride() int {
	if c.ScanStride == nil {
		return 4
	}
	return *c.ScanStride
}

// GetProgressEvery returns the progress_every value or the default.
func (c *AnalysisConfig) GetProgressEvery() int {
	if c.ProgressEvery == nil {
		return 1000
	}
	return *c.ProgressEvery
}
