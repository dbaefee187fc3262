// Package config loads the optional TOML configuration of the command line
// tool. Values given on the command line override the file.
package config

import (
	"os"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hivemq/mosquitto2hivemq/pkg/archive"
)

// Config is the tool configuration.
//
//	log_level = "info"
//
//	[decode]
//	force = false
//	workers = 1
//	display_chunks = false
//
//	[pack]
//	level = 5
type Config struct {
	LogLevel string `toml:"log_level"`
	Decode   Decode `toml:"decode"`
	Pack     Pack   `toml:"pack"`
}

// Decode configures decoding of a persistence file.
type Decode struct {
	Force         bool `toml:"force"`
	Workers       int  `toml:"workers"`
	DisplayChunks bool `toml:"display_chunks"`
}

// Pack configures writing of snapshot containers.
type Pack struct {
	Level int `toml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel: "info",
		Decode: Decode{
			Workers: 1,
		},
		Pack: Pack{
			Level: archive.DefaultCompressionLevel,
		},
	}
}

// Load reads the file at path over the defaults. Keys missing from the file
// keep their default value.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "load config %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, errors.Wrap(err, path)
	}
	return cfg, nil
}

// Parse reads a configuration from TOML text over the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log_level")
	}
	if c.Decode.Workers < 1 {
		return errors.Errorf("decode.workers must be at least 1, got %d", c.Decode.Workers)
	}
	return nil
}
