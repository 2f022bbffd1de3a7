package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the working directory when no -config
// flag is given.
const DefaultConfigFile = "w.yaml"

// Config controls code generation and the driver's link step.
type Config struct {
	// Entry is the function exported with .globl; it maps the frame region.
	Entry string `yaml:"entry"`
	// FrameRegionSize is the byte size of the anonymous mapping that backs
	// every function's variables.
	FrameRegionSize int `yaml:"frame_region_size"`
	// Trace logs each grammar rule the parser applies to stderr.
	Trace bool `yaml:"trace"`
	// MaxErrors is how many diagnostics to collect before giving up.
	MaxErrors int        `yaml:"max_errors"`
	Link      LinkConfig `yaml:"link"`
}

// LinkConfig describes how `w build -exe` turns assembly into an executable.
type LinkConfig struct {
	CC      string   `yaml:"cc"`
	Objects []string `yaml:"objects,omitempty"` // helper objects, e.g. print.o
	Flags   []string `yaml:"flags,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Entry:           "main",
		FrameRegionSize: 1 << 20,
		MaxErrors:       1,
		Link: LinkConfig{
			CC:    "gcc",
			Flags: []string{"-O0", "-g"},
		},
	}
}

// ParseConfig reads YAML over the defaults; keys not present keep their
// default values.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads path. An empty path means DefaultConfigFile, which may
// be absent; an explicitly named file must exist.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Entry == "" {
		return errors.New("config: entry must name a function")
	}
	if c.FrameRegionSize <= 0 || c.FrameRegionSize%slotSize != 0 {
		return fmt.Errorf("config: frame_region_size must be a positive multiple of %d, got %d", slotSize, c.FrameRegionSize)
	}
	if c.MaxErrors < 1 {
		return fmt.Errorf("config: max_errors must be at least 1, got %d", c.MaxErrors)
	}
	if c.Link.CC == "" {
		return errors.New("config: link.cc must name a compiler driver")
	}
	return nil
}
