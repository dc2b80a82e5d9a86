// Package config loads the spac command's YAML configuration.
//
// Configuration comes from a single file named by the --config flag or the
// SPAC_CONFIG environment variable. Command-line flags override the file;
// the file overrides the defaults. ${VAR} references in the schema path
// expand from the environment.
//
//	schema: ${HOME}/schemas/shop.wit
//	type: order
//	format: hex
//	void: nil
//	unions:
//	  payment:
//	    discriminant: method
//	adapters:
//	  order:
//	    id: uuid
//	    placed: unix-millis
package config

import (
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/spac/adapter"
	"github.com/wippyai/spac/codec"
	"github.com/wippyai/spac/errors"
	"github.com/wippyai/spac/shape"
)

// EnvVar names the environment variable holding the config path.
const EnvVar = "SPAC_CONFIG"

// Payload formats.
const (
	FormatHex    = "hex"
	FormatBase64 = "base64"
	FormatRaw    = "raw"
)

// Void sentinels.
const (
	VoidNil  = "nil"
	VoidUnit = "unit"
)

// Config is the spac command configuration.
type Config struct {
	// Unions holds per-union settings keyed by union name.
	Unions map[string]UnionConfig `yaml:"unions,omitempty"`

	// Adapters maps record name to field name to adapter name.
	Adapters map[string]map[string]string `yaml:"adapters,omitempty"`

	// Schema is the WIT source or JSON file to import types from.
	Schema string `yaml:"schema"`

	// Type is the root type payloads are read and written as.
	Type string `yaml:"type"`

	// Format is how payloads are written to and read from text: hex,
	// base64 or raw.
	// Default: hex
	Format string `yaml:"format"`

	// Void selects the memory value of void positions: nil or unit.
	// Default: nil
	Void string `yaml:"void"`
}

// UnionConfig configures one union's memory form.
type UnionConfig struct {
	// Discriminant is the record key holding the alternative label.
	// Default: _type
	Discriminant string `yaml:"discriminant"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Format: FormatHex,
		Void:   VoidNil,
	}
}

// Load loads the file named by SPAC_CONFIG, or returns the defaults when
// it is unset.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from path over the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "read config "+path)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "parse config "+path)
	}
	cfg.Schema = os.ExpandEnv(cfg.Schema)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if !slices.Contains([]string{FormatHex, FormatBase64, FormatRaw}, c.Format) {
		return invalid("format", "must be one of hex, base64, raw, got %q", c.Format)
	}
	if c.Void != VoidNil && c.Void != VoidUnit {
		return invalid("void", "must be nil or unit, got %q", c.Void)
	}
	for name, u := range c.Unions {
		if u.Discriminant == codec.ValueKey {
			return invalid("unions."+name+".discriminant", "%q is reserved for the payload", codec.ValueKey)
		}
	}
	for record, fields := range c.Adapters {
		for field, name := range fields {
			if _, err := adapter.ByName(name); err != nil {
				return invalid("adapters."+record+"."+field, "unknown adapter %q, have %v", name, adapter.Names())
			}
		}
	}
	return nil
}

// Mem builds the memory form of s with the configured overrides applied:
// union discriminants, field adapters and the void sentinel. Positions the
// configuration does not mention get the default form.
func (c *Config) Mem(s shape.Shape) (codec.Mem, error) {
	return c.mem(s, map[shape.Shape]bool{})
}

func (c *Config) mem(s shape.Shape, seen map[shape.Shape]bool) (codec.Mem, error) {
	switch t := s.(type) {
	case shape.Void:
		if c.Void == VoidUnit {
			return codec.MemVoid{Sentinel: codec.VoidUnit}, nil
		}
		return codec.MemVoid{Sentinel: codec.VoidNil}, nil
	case *shape.Record:
		if seen[t] {
			return codec.MemRef{Name: t.Name}, nil
		}
		seen[t] = true
		m := &codec.MemRecord{Name: t.Name, Fields: make(map[string]codec.Mem, len(t.Fields))}
		for _, f := range t.Fields {
			if name, ok := c.Adapters[t.Name][f.Name]; ok {
				a, err := adapter.ByName(name)
				if err != nil {
					return nil, err
				}
				m.Fields[f.Name] = a
				continue
			}
			fm, err := c.mem(f.Shape, seen)
			if err != nil {
				return nil, err
			}
			m.Fields[f.Name] = fm
		}
		return m, nil
	case *shape.Union:
		if seen[t] {
			return codec.MemRef{Name: t.Name}, nil
		}
		seen[t] = true
		m := &codec.MemUnion{
			Name:         t.Name,
			Discriminant: codec.DefaultDiscriminant,
			Alternatives: make([]codec.Mem, len(t.Alternatives)),
		}
		if u, ok := c.Unions[t.Name]; ok && u.Discriminant != "" {
			m.Discriminant = u.Discriminant
		}
		for i, a := range t.Alternatives {
			am, err := c.mem(a.Shape, seen)
			if err != nil {
				return nil, err
			}
			m.Alternatives[i] = am
		}
		return m, nil
	default:
		return codec.DefaultMem(s), nil
	}
}

func invalid(key, format string, args ...any) error {
	return errors.New(errors.PhaseConfig, errors.KindInvalidData).
		Path(key).
		Detail(format, args...).
		Build()
}
