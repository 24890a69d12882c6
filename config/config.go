// Package config builds cache.Options from the environment or from viper.
package config

import (
	"io"
	"strings"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/jmgilman/go/errors"
	cache "github.com/krisalay/keshi"
	"github.com/krisalay/keshi/duration"
	"github.com/krisalay/keshi/storage"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Storage adapter names.
const (
	StorageMemory  = "memory"
	StorageSharded = "sharded"
	StorageDisk    = "disk"
)

// Viper keys, shared with the CLI flags and the config file.
const (
	KeyCleanupInterval = "cleanup_interval"
	KeyStorage         = "storage"
	KeyShards          = "shards"
	KeyDiskPath        = "disk_path"
	KeyDiskCompression = "disk_compression"
)

// Config is the externally configurable part of cache.Options.
type Config struct {
	// CleanupInterval is a duration string ("30s", "5 mins") or off.
	CleanupInterval string `env:"KESHI_CLEANUP_INTERVAL" yaml:"cleanup_interval"`
	Storage         string `env:"KESHI_STORAGE" envDefault:"memory" yaml:"storage"`
	Shards          int    `env:"KESHI_SHARDS" envDefault:"16" yaml:"shards"`

	// DiskPath may start with ~.
	DiskPath string `env:"KESHI_DISK_PATH" yaml:"disk_path"`

	// DiskCompression is a zstd level; zero stores entries uncompressed.
	DiskCompression int `env:"KESHI_DISK_COMPRESSION" envDefault:"3" yaml:"disk_compression"`
}

// FromEnv reads the KESHI_* environment variables.
func FromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, errors.Wrap(err, errors.CodeInvalidConfig, "parse environment")
	}
	return cfg, nil
}

// SetDefaults registers the defaults FromViper relies on.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyCleanupInterval, "")
	v.SetDefault(KeyStorage, StorageMemory)
	v.SetDefault(KeyShards, 16)
	v.SetDefault(KeyDiskPath, "")
	v.SetDefault(KeyDiskCompression, 3)
}

// FromViper reads the same settings from v.
func FromViper(v *viper.Viper) Config {
	return Config{
		CleanupInterval: v.GetString(KeyCleanupInterval),
		Storage:         v.GetString(KeyStorage),
		Shards:          v.GetInt(KeyShards),
		DiskPath:        v.GetString(KeyDiskPath),
		DiskCompression: v.GetInt(KeyDiskCompression),
	}
}

// ParseInterval turns a cleanup interval setting into cache.Options.CleanupInterval.
func ParseInterval(s string) (time.Duration, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return cache.DefaultCleanupInterval, nil
	case "off", "disabled", "never", "false":
		return cache.NoCleanup, nil
	}

	d, err := duration.Parse(s)
	if err != nil {
		return 0, errors.Wrapf(err, errors.CodeInvalidConfig, "cleanup interval %q", s)
	}
	if d <= 0 {
		return cache.NoCleanup, nil
	}
	return d, nil
}

// Options builds cache.Options with the configured adapter. The returned
// closer releases the adapter and must be called after Teardown.
func (c Config) Options() (cache.Options, io.Closer, error) {
	interval, err := ParseInterval(c.CleanupInterval)
	if err != nil {
		return cache.Options{}, nil, err
	}

	opts := cache.Options{CleanupInterval: interval}

	switch strings.ToLower(c.Storage) {
	case "", StorageMemory:
		opts.Storage = storage.NewMemory()
	case StorageSharded:
		if c.Shards <= 0 {
			return cache.Options{}, nil, errors.New(errors.CodeInvalidConfig, "shards must be positive")
		}
		opts.Storage = storage.NewSharded(c.Shards)
	case StorageDisk:
		path, err := homedir.Expand(c.DiskPath)
		if err != nil {
			return cache.Options{}, nil, errors.Wrapf(err, errors.CodeInvalidConfig, "disk path %q", c.DiskPath)
		}
		d, err := storage.OpenDisk(storage.DiskOptions{Path: path, CompressionLevel: c.DiskCompression})
		if err != nil {
			return cache.Options{}, nil, errors.Wrap(err, errors.CodeInvalidConfig, "open disk storage")
		}
		opts.Storage = d
		return opts, d, nil
	default:
		return cache.Options{}, nil, errors.Newf(errors.CodeInvalidConfig, "unknown storage %q", c.Storage)
	}

	return opts, nopCloser{}, nil
}

// YAML renders c in the config file format.
func (c Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "marshal config")
	}
	return out, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
