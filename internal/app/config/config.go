// Package config loads engine parameters from an INI file.
package config

import (
	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

// minBlockSize is the smallest block size that can hold a boundary word
// plus one minimal record.
const minBlockSize = 64

// Config holds the parameters under an ini file's [engine] section.
type Config struct {
	DBDir      string
	BlockSize  int
	BufferPool int
	LogFile    string
}

// defaults returns the configuration used when no file is supplied.
func defaults() *Config {
	return &Config{
		DBDir:      "./data",
		BlockSize:  4096,
		BufferPool: 8,
		LogFile:    "coredb.log",
	}
}

// Load returns the default configuration when path is empty, or the
// defaults overlaid with path's [engine] section otherwise. No
// environment variables are consulted.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return cfg, nil
	}

	raw, err := ini.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load config %s", path)
	}

	section := raw.Section("engine")
	if section.HasKey("db_dir") {
		cfg.DBDir = section.Key("db_dir").String()
	}
	if section.HasKey("block_size") {
		v, err := section.Key("block_size").Int()
		if err != nil {
			return nil, errors.Wrap(err, "parse block_size")
		}
		cfg.BlockSize = v
	}
	if section.HasKey("buffer_pool") {
		v, err := section.Key("buffer_pool").Int()
		if err != nil {
			return nil, errors.Wrap(err, "parse buffer_pool")
		}
		cfg.BufferPool = v
	}
	if section.HasKey("log_file") {
		cfg.LogFile = section.Key("log_file").String()
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.BlockSize < minBlockSize {
		return errors.Errorf("block_size must be at least %d bytes, got %d", minBlockSize, c.BlockSize)
	}
	if c.BufferPool < 1 {
		return errors.Errorf("buffer_pool must be at least 1, got %d", c.BufferPool)
	}
	if c.DBDir == "" {
		return errors.New("db_dir must not be empty")
	}
	if c.LogFile == "" {
		return errors.New("log_file must not be empty")
	}
	return nil
}
