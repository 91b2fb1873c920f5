// Package config loads and validates the pipeline configuration.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// ErrInvalid marks configuration that must abort the run before any record
// is processed.
var ErrInvalid = errors.New("invalid configuration")

// Output modes for the waveform pipeline.
const (
	ModeWhole    = "whole"    // one CSV per source record, named by record id
	ModeSegments = "segments" // windowed like the measurement pipeline
)

type Pipeline struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
}

type Database struct {
	MeasureDir      string  `mapstructure:"measure_dir"`
	PhysionetDir    string  `mapstructure:"physionet_dir"`
	SampleFrequency float64 `mapstructure:"sample_frequency"` // Hz
}

type Segmentation struct {
	Duration float64 `mapstructure:"duration"` // seconds
}

type Output struct {
	Dir  string `mapstructure:"dir"`
	Mode string `mapstructure:"mode"` // waveform pipeline only
}

type Root struct {
	Pipeline     Pipeline     `mapstructure:"pipeline"`
	Database     Database     `mapstructure:"database"`
	Segmentation Segmentation `mapstructure:"segmentation"`
	Output       Output       `mapstructure:"output"`
}

// Load reads the YAML configuration, applying defaults for the optional
// keys. An empty path falls back to ./config.yaml.
func Load(path string) (*Root, error) {
	v := viper.New()
	v.SetDefault("pipeline.log_level", "info")
	v.SetDefault("segmentation.duration", 10.0)
	v.SetDefault("output.mode", ModeWhole)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Root
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the knobs shared by both pipelines.
func (c *Root) Validate() error {
	if c.Database.SampleFrequency <= 0 {
		return fmt.Errorf("%w: sample_frequency must be positive, got %g", ErrInvalid, c.Database.SampleFrequency)
	}
	if c.Segmentation.Duration <= 0 {
		return fmt.Errorf("%w: segmentation duration must be positive, got %g", ErrInvalid, c.Segmentation.Duration)
	}
	if int(c.Database.SampleFrequency*c.Segmentation.Duration) < 1 {
		return fmt.Errorf("%w: window of %gs at %g Hz holds less than one sample",
			ErrInvalid, c.Segmentation.Duration, c.Database.SampleFrequency)
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("%w: output dir is required", ErrInvalid)
	}
	switch c.Output.Mode {
	case ModeWhole, ModeSegments:
	default:
		return fmt.Errorf("%w: output mode %q, want %q or %q", ErrInvalid, c.Output.Mode, ModeWhole, ModeSegments)
	}
	return nil
}

// ValidatePhysionet additionally pins the sampling frequency to the
// resolutions the waveform database ships.
func (c *Root) ValidatePhysionet() error {
	if err := c.Validate(); err != nil {
		return err
	}
	switch c.Database.SampleFrequency {
	case 100, 500:
	default:
		return fmt.Errorf("%w: sample_frequency %g not supported by the waveform database, use 100 or 500",
			ErrInvalid, c.Database.SampleFrequency)
	}
	if c.Database.PhysionetDir == "" {
		return fmt.Errorf("%w: physionet_dir is required", ErrInvalid)
	}
	return nil
}

// RecordsFolder names the waveform subdirectory for the configured rate.
func (c *Root) RecordsFolder() string {
	return fmt.Sprintf("records%d", int(c.Database.SampleFrequency))
}

// FilenameColumn names the index column holding record paths for the
// configured rate.
func (c *Root) FilenameColumn() string {
	if c.Database.SampleFrequency == 100 {
		return "filename_lr"
	}
	return "filename_hr"
}
