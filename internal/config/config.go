// Package config holds the YAML configuration of the upsample CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/upsample/internal/layer"
	"github.com/born-ml/upsample/internal/tensor"
)

// Config is the root configuration structure.
type Config struct {
	Kernel  KernelConfig  `yaml:"kernel"`
	Layer   LayerConfig   `yaml:"layer"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// KernelConfig selects the bilinear kernel to build.
type KernelConfig struct {
	Height   int             `yaml:"height"`
	Width    int             `yaml:"width"`
	Channels int             `yaml:"channels"`
	UseBias  bool            `yaml:"use_bias"`
	DType    tensor.DataType `yaml:"dtype"`
}

// LayerConfig describes the layer that consumes the kernel.
type LayerConfig struct {
	Kind        layer.Kind `yaml:"kind"`
	Name        string     `yaml:"name"`
	InputHeight int        `yaml:"input_height"`
	InputWidth  int        `yaml:"input_width"`
}

// OutputConfig controls weight export.
type OutputConfig struct {
	Path     string            `yaml:"path"`
	Metadata map[string]string `yaml:"metadata,omitempty"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns the default configuration: a 2x2 single-channel
// kernel with a bias, consumed by a Conv2D layer.
func DefaultConfig() *Config {
	return &Config{
		Kernel: KernelConfig{
			Height:   2,
			Width:    2,
			Channels: 1,
			UseBias:  true,
			DType:    tensor.Float32,
		},
		Layer: LayerConfig{
			Kind:        layer.Conv2D,
			Name:        "upsample",
			InputHeight: 32,
			InputWidth:  32,
		},
		Output: OutputConfig{
			Path: "bilinear.safetensors",
		},
	}
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	//nolint:gosec // G304: config path is chosen by the user
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // config is not secret
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Upsampler returns the layer description implied by the configuration.
func (c *Config) Upsampler() layer.Upsampler {
	return layer.Upsampler{
		Kind:     c.Layer.Kind,
		Height:   c.Kernel.Height,
		Width:    c.Kernel.Width,
		Channels: c.Kernel.Channels,
		UseBias:  c.Kernel.UseBias,
	}
}

// Validate checks the configuration for values the builder would reject.
func (c *Config) Validate() error {
	if err := c.Upsampler().Validate(); err != nil {
		return fmt.Errorf("kernel: %w", err)
	}
	if !c.Kernel.DType.Valid() {
		return fmt.Errorf("kernel: unsupported dtype %d", int(c.Kernel.DType))
	}
	if c.Layer.InputHeight <= 0 || c.Layer.InputWidth <= 0 {
		return fmt.Errorf("layer: input size (%d, %d) must be positive", c.Layer.InputHeight, c.Layer.InputWidth)
	}
	return nil
}
