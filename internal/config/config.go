// Package config provides configuration management for hashscout.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sivchari/hashscout/internal/extract"
	"github.com/sivchari/hashscout/internal/hasher"
	"github.com/sivchari/hashscout/internal/ignore"
	"github.com/sivchari/hashscout/internal/report"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = ".hashscout.yaml"

// ErrInvalid is returned for configurations that fail validation.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the configuration for hashscout.
type Config struct {
	// General settings
	Verbose   bool   `yaml:"verbose,omitempty" json:"verbose,omitempty"`
	Algorithm string `yaml:"algorithm,omitempty" json:"algorithm,omitempty"`
	Password  string `yaml:"password,omitempty" json:"-"`

	Extraction ExtractionConfig `yaml:"extraction,omitempty" json:"extraction,omitempty"`
	Walk       WalkConfig       `yaml:"walk,omitempty" json:"walk,omitempty"`
	Output     OutputConfig     `yaml:"output,omitempty" json:"output,omitempty"`
}

// ExtractionConfig contains archive extraction settings.
type ExtractionConfig struct {
	// Methods is the cascade order; see extract.DefaultMethods.
	Methods []string `yaml:"methods,omitempty" json:"methods,omitempty"`
	// SevenZipPath locates the external tool. Empty uses the platform default.
	SevenZipPath string `yaml:"sevenZipPath,omitempty" json:"sevenZipPath,omitempty"`
}

// WalkConfig contains directory walk settings.
type WalkConfig struct {
	Exclude    []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	IgnoreFile string   `yaml:"ignoreFile,omitempty" json:"ignoreFile,omitempty"`
}

// OutputConfig contains report settings.
type OutputConfig struct {
	Format   string `yaml:"format,omitempty" json:"format,omitempty"`
	FileName string `yaml:"fileName,omitempty" json:"fileName,omitempty"`
}

// Default returns a config with default values.
func Default() *Config {
	return &Config{
		Algorithm: string(hasher.DefaultAlgorithm),
		Extraction: ExtractionConfig{
			Methods: extract.DefaultMethods(),
		},
		Walk: WalkConfig{
			IgnoreFile: ignore.FileName,
		},
		Output: OutputConfig{
			Format: report.FormatCSV,
		},
	}
}

// Load loads configuration from file, falling back to defaults.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	// If no config file specified, try the default location
	if configFile == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			configFile = DefaultFile
		}
	}

	if configFile != "" {
		if err := cfg.loadFromFile(configFile); err != nil {
			return nil, err
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: failed to parse YAML config file: %w", ErrInvalid, err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = string(hasher.DefaultAlgorithm)
	}

	if len(c.Extraction.Methods) == 0 {
		c.Extraction.Methods = extract.DefaultMethods()
	}

	if c.Walk.IgnoreFile == "" {
		c.Walk.IgnoreFile = ignore.FileName
	}

	if c.Output.Format == "" {
		c.Output.Format = report.FormatCSV
	}
}

// Validate checks every setting that can be checked before a run.
func (c *Config) Validate() error {
	if _, err := hasher.ParseAlgorithm(c.Algorithm); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if _, err := extract.StrategiesByName(c.Extraction.Methods, c.Extraction.SevenZipPath); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if _, err := report.New(c.Output.Format); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if c.Output.FileName != "" && filepath.Base(c.Output.FileName) != c.Output.FileName {
		return fmt.Errorf("%w: output file name %q must not contain a directory", ErrInvalid, c.Output.FileName)
	}

	return nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write YAML config file: %w", err)
	}

	return nil
}
