package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/bamsammich/clonefile"
)

// Config represents the optional clonefile configuration file.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
	Log      LogConfig      `toml:"log"`
}

// DefaultsConfig holds persistent flag defaults. Nil means "not set".
type DefaultsConfig struct {
	NoFollow    *bool    `toml:"no_follow"`
	NoOwnerCopy *bool    `toml:"no_owner_copy"`
	CloneACL    *bool    `toml:"clone_acl"`
	Verify      *bool    `toml:"verify"`
	Workers     *int     `toml:"workers"`
	Rate        *float64 `toml:"rate"`
}

// LogConfig configures the optional structured log file.
type LogConfig struct {
	File *string `toml:"file"`
}

// Options returns the clone options selected by the config file.
func (d DefaultsConfig) Options() clonefile.Options {
	var opts clonefile.Options
	if d.NoFollow != nil {
		opts.NoFollow = *d.NoFollow
	}
	if d.NoOwnerCopy != nil {
		opts.NoOwnerCopy = *d.NoOwnerCopy
	}
	if d.CloneACL != nil {
		opts.CloneACL = *d.CloneACL
	}
	return opts
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "clonefile", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero Config
// (no error) if the file does not exist. Config is always optional.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Config{}, nil
	}
	cfg, err := LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Config{}, nil
	}
	return cfg, err
}

// LoadFile reads the config file at path. Unlike Load, a missing file is
// an error.
func LoadFile(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if w := cfg.Defaults.Workers; w != nil && *w < 0 {
		return Config{}, fmt.Errorf("%s: workers must be >= 0, got %d", path, *w)
	}
	if r := cfg.Defaults.Rate; r != nil && *r < 0 {
		return Config{}, fmt.Errorf("%s: rate must be >= 0, got %g", path, *r)
	}
	return cfg, nil
}
