// Package config loads framebridge settings from a TOML file and the
// environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/framebridge/framebridge/internal/logging"
	"github.com/framebridge/framebridge/pkg/sink"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FRAMEBRIDGE_"

type Config struct {
	LogLevel string  `toml:"log_level"`
	Pool     Pool    `toml:"pool"`
	Handle   Handle  `toml:"handle"`
	Sink     Sink    `toml:"sink"`
	Metrics  Metrics `toml:"metrics"`
}

type Pool struct {
	// StrideAlignment rounds every plane stride of conversion buffers up to
	// a multiple of this power of two.
	StrideAlignment int `toml:"stride_alignment"`
}

type Handle struct {
	Memoize bool `toml:"memoize"`
}

type Sink struct {
	// Library is tried before SearchPaths and the default locations.
	Library     string   `toml:"library"`
	Symbol      string   `toml:"symbol"`
	SearchPaths []string `toml:"search_paths"`
}

type Metrics struct {
	// Addr is the listen address of the /metrics endpoint; empty disables
	// it.
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel: "info",
		Pool:     Pool{StrideAlignment: 1},
		Sink:     Sink{Symbol: sink.DefaultSymbol},
	}
}

// Load reads the configuration like Read and validates it.
func Load(path string) (Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Read returns Default overlaid with the file at path and then with
// environment overrides. An empty path skips the file. Values are not
// validated, so callers can apply further overrides before Validate.
func Read(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		d := toml.NewDecoder(bytes.NewReader(data))
		d.DisallowUnknownFields()
		if err := d.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return Config{}, fmt.Errorf("failed to parse TOML config %s:\n%s", path, strict.String())
			}
			return Config{}, fmt.Errorf("failed to parse TOML config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvPrefix + "STRIDE_ALIGNMENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sSTRIDE_ALIGNMENT: %w", EnvPrefix, err)
		}
		c.Pool.StrideAlignment = n
	}
	if v := os.Getenv(EnvPrefix + "MEMOIZE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sMEMOIZE: %w", EnvPrefix, err)
		}
		c.Handle.Memoize = b
	}
	if v := os.Getenv(EnvPrefix + "METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	return nil
}

// Validate checks values that Load cannot catch while decoding.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if n := c.Pool.StrideAlignment; n <= 0 || n&(n-1) != 0 {
		return fmt.Errorf("pool.stride_alignment must be a power of two, got %d", n)
	}
	if c.Sink.Symbol == "" {
		return errors.New("sink.symbol must not be empty")
	}
	return nil
}

// SinkPaths returns the library search order for the sink: Library, then
// SearchPaths.
func (c Config) SinkPaths() []string {
	var paths []string
	if c.Sink.Library != "" {
		paths = append(paths, c.Sink.Library)
	}
	return append(paths, c.Sink.SearchPaths...)
}

// Marshal encodes c as TOML.
func (c Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
