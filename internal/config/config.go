// Package config loads the shell configuration.
//
// Values come from, in increasing precedence: built-in defaults, a YAML or
// JSON file, BUSTUB_* environment variables and command-line flags. The last
// layer is applied by the caller.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/aretw0/bustub-shell/internal/adapters/wasm"
	"github.com/aretw0/bustub-shell/pkg/arena"
)

// DefaultPath is read when no file is given.
const DefaultPath = "bustub.yaml"

// EnvPrefix marks the environment overrides. A variable maps to a key by
// dropping the prefix and splitting the section from the field at the first
// underscore: BUSTUB_SHELL_HISTORY_SIZE sets shell.history_size and
// BUSTUB_ENGINE_EXPORTS_INIT sets engine.exports.init.
const EnvPrefix = "BUSTUB_"

// Config is the full shell configuration.
type Config struct {
	Engine Engine `yaml:"engine"`
	Shell  Shell  `yaml:"shell"`
	Server Server `yaml:"server"`
}

// Engine configures loading and calling the engine module.
type Engine struct {
	Artifact       string        `yaml:"artifact"`
	Exports        wasm.Exports  `yaml:"exports"`
	BufferCapacity int           `yaml:"buffer_capacity"`
	LoadTimeout    time.Duration `yaml:"load_timeout"`
}

// MarshalYAML writes the load timeout in its readable form so the output of
// Encode loads back unchanged.
func (e Engine) MarshalYAML() (any, error) {
	return struct {
		Artifact       string       `yaml:"artifact"`
		Exports        wasm.Exports `yaml:"exports"`
		BufferCapacity int          `yaml:"buffer_capacity"`
		LoadTimeout    string       `yaml:"load_timeout"`
	}{e.Artifact, e.Exports, e.BufferCapacity, e.LoadTimeout.String()}, nil
}

// Shell configures the interactive session.
type Shell struct {
	Prompt      string `yaml:"prompt"`
	HistorySize int    `yaml:"history_size"`
}

// Server configures the HTTP collaborator.
type Server struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Engine: Engine{
			Artifact:       "bustub.wasm",
			Exports:        wasm.DefaultExports(),
			BufferCapacity: arena.DefaultCapacity,
			LoadTimeout:    15 * time.Second,
		},
		Shell: Shell{
			Prompt:      "bustub> ",
			HistorySize: 1000,
		},
		Server: Server{
			Addr: ":8080",
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error. The parser follows the file extension:
// .json files are read as JSON, anything else as YAML.
func Load(path string) (Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path != "" {
		switch _, err := os.Stat(path); {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
				return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return cfg, fmt.Errorf("failed to read environment: %w", err)
	}

	// Unmarshalling onto the defaults keeps every key no layer set.
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return cfg, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

func parserFor(path string) koanf.Parser {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return json.Parser()
	}
	return yaml.Parser()
}

// envKey maps BUSTUB_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}
	if rest, ok := strings.CutPrefix(field, "exports_"); ok && section == "engine" {
		return "engine.exports." + rest
	}
	return section + "." + field
}

// Encode writes cfg as YAML in the layout Load reads.
func Encode(w io.Writer, cfg Config) error {
	enc := yamlv3.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

// Validate rejects configurations the bridge cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Engine.Artifact == "" {
		errs = append(errs, errors.New("engine.artifact is required"))
	}
	if c.Engine.BufferCapacity < 2 || c.Engine.BufferCapacity > arena.MaxCapacity {
		errs = append(errs, fmt.Errorf("engine.buffer_capacity must be between 2 and %d, got %d", arena.MaxCapacity, c.Engine.BufferCapacity))
	}
	if c.Engine.LoadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("engine.load_timeout must be positive, got %s", c.Engine.LoadTimeout))
	}
	e := c.Engine.Exports
	if e.Init == "" || e.Execute == "" || e.Malloc == "" || e.Free == "" {
		errs = append(errs, errors.New("engine.exports: init, execute, malloc and free are required"))
	}
	if c.Shell.HistorySize < 0 {
		errs = append(errs, fmt.Errorf("shell.history_size must not be negative, got %d", c.Shell.HistorySize))
	}
	return errors.Join(errs...)
}
