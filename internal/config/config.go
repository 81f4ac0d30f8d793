// Package config loads archstone settings from a JSON file and the
// environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"archstone/internal/disasm"
	"archstone/internal/isa"
)

// Environment variables read by Load.
const (
	EnvConfig  = "ARCHSTONE_CONFIG"
	EnvArch    = "ARCHSTONE_ARCH"
	EnvLower   = "ARCHSTONE_LOWER"
	EnvAliases = "ARCHSTONE_ALIASES"
	EnvNoColor = "ARCHSTONE_NO_COLOR"
)

// DefaultFile is read from the working directory when no path is given.
const DefaultFile = "archstone.json"

// Config is the on-disk configuration.
type Config struct {
	Arch            string `json:"arch,omitempty" jsonschema:"title=Architecture,description=Default instruction set,enum=arm,enum=thumb,default=arm"`
	LowerCase       bool   `json:"lowerCase,omitempty" jsonschema:"title=Lower Case,description=Print mnemonics and registers in lower case"`
	Aliases         bool   `json:"aliases,omitempty" jsonschema:"title=Register Aliases,description=Print sp lr and pc for r13 r14 and r15"`
	CollapseRanges  bool   `json:"collapseRanges,omitempty" jsonschema:"title=Collapse Ranges,description=Print register lists as ranges such as r4-r7"`
	NoColor         bool   `json:"noColor,omitempty" jsonschema:"title=No Color,description=Disable colour output"`
	Demangle        *bool  `json:"demangle,omitempty" jsonschema:"title=Demangle,description=Demangle C++ symbol names in listings,default=true"`
	MaxInstructions int    `json:"maxInstructions,omitempty" jsonschema:"title=Max Instructions,description=Instruction limit for single function listings,minimum=0"`
	Debug           bool   `json:"debug,omitempty" jsonschema:"title=Debug,description=Enable debug logging"`
}

// Load reads path, or $ARCHSTONE_CONFIG, or DefaultFile when it exists, and
// applies environment overrides. A missing default file is not an error.
func Load(path string) (Config, error) {
	var cfg Config

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfig)
		explicit = path != ""
	}
	if path == "" {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvArch); v != "" {
		c.Arch = v
	}
	for _, b := range []struct {
		env string
		dst *bool
	}{
		{EnvLower, &c.LowerCase},
		{EnvAliases, &c.Aliases},
	} {
		v := os.Getenv(b.env)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", b.env, err)
		}
		*b.dst = parsed
	}
	if os.Getenv(EnvNoColor) != "" {
		c.NoColor = true
	}
	return nil
}

// Validate checks field values.
func (c Config) Validate() error {
	if _, err := disasm.ParseMode(c.Arch); err != nil {
		return fmt.Errorf("arch: %w", err)
	}
	if c.MaxInstructions < 0 {
		return fmt.Errorf("maxInstructions must not be negative, got %d", c.MaxInstructions)
	}
	return nil
}

// Mode is the configured default instruction set.
func (c Config) Mode() disasm.Mode {
	m, _ := disasm.ParseMode(c.Arch)
	return m
}

// Style is the rendering style the configuration selects.
func (c Config) Style() isa.Style {
	return isa.Style{Aliases: c.Aliases, CollapseRanges: c.CollapseRanges, LowerCase: c.LowerCase}
}

// DemangleNames reports whether listings demangle symbols; the default is on.
func (c Config) DemangleNames() bool {
	return c.Demangle == nil || *c.Demangle
}
