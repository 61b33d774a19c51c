// Package config provides configuration management for faceprint.
// It loads configuration from YAML files with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all faceprint configuration.
type Config struct {
	Detection DetectionConfig `yaml:"detection"`
	Matching  MatchingConfig  `yaml:"matching"`
	Quality   QualityConfig   `yaml:"quality"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DetectionTier is one parameterization of the face detector. Tiers are
// attempted in order until one of them yields at least one candidate.
type DetectionTier struct {
	ScaleFactor      float64 `yaml:"scale_factor"`
	MinSize          int     `yaml:"min_size"`
	QualityThreshold float64 `yaml:"quality_threshold"`
}

// DetectionConfig holds face detection settings.
type DetectionConfig struct {
	CascadeFile      string          `yaml:"cascade_file"`
	MaxSize          int             `yaml:"max_size"`
	ShiftFactor      float64         `yaml:"shift_factor"`
	ClusterOverlap   float64         `yaml:"cluster_overlap"`
	StrictSingleFace bool            `yaml:"strict_single_face"`
	Tiers            []DetectionTier `yaml:"tiers"`
}

// MatchingConfig holds signature comparison settings. The distance weights
// and the adaptive tolerance multipliers are empirically chosen constants
// and are deliberately exposed as configuration.
type MatchingConfig struct {
	Tolerance            float64 `yaml:"tolerance"`
	MaxExpectedDistance  float64 `yaml:"max_expected_distance"`
	EuclideanWeight      float64 `yaml:"euclidean_weight"`
	CosineWeight         float64 `yaml:"cosine_weight"`
	ManhattanWeight      float64 `yaml:"manhattan_weight"`
	HighQualityBoost     float64 `yaml:"high_quality_boost"`
	LowQualityPenalty    float64 `yaml:"low_quality_penalty"`
	HighQualityThreshold float64 `yaml:"high_quality_threshold"`
	LowQualityThreshold  float64 `yaml:"low_quality_threshold"`
	TruncateOnMismatch   bool    `yaml:"truncate_on_mismatch"`
}

// QualityConfig holds capture quality estimation settings.
type QualityConfig struct {
	SizeGain    float64 `yaml:"size_gain"`
	ClarityGain float64 `yaml:"clarity_gain"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	DataDir           string `yaml:"data_dir"`
	EncryptionEnabled bool   `yaml:"encryption_enabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Detection: DetectionConfig{
			CascadeFile:    filepath.Join(homeDir, ".local/share/faceprint/models/facefinder"),
			MaxSize:        1000,
			ShiftFactor:    0.1,
			ClusterOverlap: 0.2,
			// Progressively more permissive tiers. All three are tried
			// before giving up on an image.
			Tiers: []DetectionTier{
				{ScaleFactor: 1.1, MinSize: 30, QualityThreshold: 25.0},
				{ScaleFactor: 1.15, MinSize: 20, QualityThreshold: 15.0},
				{ScaleFactor: 1.05, MinSize: 15, QualityThreshold: 5.0},
			},
		},
		Matching: MatchingConfig{
			Tolerance:            0.6,
			MaxExpectedDistance:  1.0,
			EuclideanWeight:      0.4,
			CosineWeight:         0.4,
			ManhattanWeight:      0.2,
			HighQualityBoost:     1.1,
			LowQualityPenalty:    0.9,
			HighQualityThreshold: 80,
			LowQualityThreshold:  60,
			TruncateOnMismatch:   false,
		},
		Quality: QualityConfig{
			SizeGain:    12.0,
			ClarityGain: 900.0,
		},
		Storage: StorageConfig{
			DataDir:           filepath.Join(homeDir, ".local/share/faceprint"),
			EncryptionEnabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(homeDir, ".local/share/faceprint/faceprint.log"),
		},
	}
}

// Load loads configuration from the specified file.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return config, err
	}

	return config, nil
}

// LoadDefault tries to load configuration from default locations.
func LoadDefault() (*Config, error) {
	// Try system config first
	if _, err := os.Stat("/etc/faceprint/faceprint.yaml"); err == nil {
		return Load("/etc/faceprint/faceprint.yaml")
	}

	// Try user config
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return DefaultConfig(), nil
	}

	userConfig := filepath.Join(homeDir, ".config/faceprint/faceprint.yaml")
	if _, err := os.Stat(userConfig); err == nil {
		return Load(userConfig)
	}

	// Return defaults
	return DefaultConfig(), nil
}

// ExpandPath expands ~ and environment variables in a path.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[2:])
		}
	}
	return os.ExpandEnv(path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	// Detection: the retry contract requires at least three tiers.
	if len(c.Detection.Tiers) < 3 {
		return fmt.Errorf("detection requires at least 3 tiers, got %d", len(c.Detection.Tiers))
	}
	for i, tier := range c.Detection.Tiers {
		if tier.ScaleFactor <= 1.0 {
			return fmt.Errorf("tier %d: scale_factor must be > 1.0, got %f", i, tier.ScaleFactor)
		}
		if tier.MinSize <= 0 {
			return fmt.Errorf("tier %d: min_size must be positive, got %d", i, tier.MinSize)
		}
	}
	if c.Detection.ShiftFactor <= 0 || c.Detection.ShiftFactor > 1 {
		return fmt.Errorf("shift_factor must be in (0, 1], got %f", c.Detection.ShiftFactor)
	}

	// Matching
	if c.Matching.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive, got %f", c.Matching.Tolerance)
	}
	if c.Matching.MaxExpectedDistance <= 0 {
		return fmt.Errorf("max_expected_distance must be positive, got %f", c.Matching.MaxExpectedDistance)
	}
	weightSum := c.Matching.EuclideanWeight + c.Matching.CosineWeight + c.Matching.ManhattanWeight
	if weightSum < 0.999 || weightSum > 1.001 {
		return fmt.Errorf("distance weights must sum to 1.0, got %f", weightSum)
	}
	if c.Matching.HighQualityBoost < 1.0 {
		return fmt.Errorf("high_quality_boost must be >= 1.0, got %f", c.Matching.HighQualityBoost)
	}
	if c.Matching.LowQualityPenalty <= 0 || c.Matching.LowQualityPenalty > 1.0 {
		return fmt.Errorf("low_quality_penalty must be in (0, 1], got %f", c.Matching.LowQualityPenalty)
	}

	// Quality
	if c.Quality.SizeGain <= 0 {
		return fmt.Errorf("size_gain must be positive, got %f", c.Quality.SizeGain)
	}
	if c.Quality.ClarityGain <= 0 {
		return fmt.Errorf("clarity_gain must be positive, got %f", c.Quality.ClarityGain)
	}

	// Logging
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	return nil
}

// ExpandPaths expands all paths in the configuration.
func (c *Config) ExpandPaths() {
	c.Detection.CascadeFile = ExpandPath(c.Detection.CascadeFile)
	c.Storage.DataDir = ExpandPath(c.Storage.DataDir)
	c.Logging.File = ExpandPath(c.Logging.File)
}

// EnsureDirectories creates necessary directories for storage and logging.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Storage.DataDir, 0700); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	subjectsDir := filepath.Join(c.Storage.DataDir, "subjects")
	if err := os.MkdirAll(subjectsDir, 0700); err != nil {
		return fmt.Errorf("failed to create subjects directory: %w", err)
	}

	modelsDir := filepath.Dir(c.Detection.CascadeFile)
	if err := os.MkdirAll(modelsDir, 0755); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}

	logDir := filepath.Dir(c.Logging.File)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	return nil
}
