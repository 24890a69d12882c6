package config

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmgilman/go/errors"
	cache "github.com/krisalay/keshi"
	"github.com/krisalay/keshi/storage"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInterval(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", cache.DefaultCleanupInterval},
		{"off", cache.NoCleanup},
		{"Disabled", cache.NoCleanup},
		{"never", cache.NoCleanup},
		{"false", cache.NoCleanup},
		{"0", cache.NoCleanup},
		{"30s", 30 * time.Second},
		{"5 mins", 5 * time.Minute},
		{"1h30m", 90 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseInterval(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseInterval("soon")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
}

func TestFromEnv(t *testing.T) {
	t.Setenv("KESHI_CLEANUP_INTERVAL", "10s")
	t.Setenv("KESHI_STORAGE", "sharded")
	t.Setenv("KESHI_SHARDS", "8")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, Config{CleanupInterval: "10s", Storage: "sharded", Shards: 8, DiskCompression: 3}, cfg)
}

func TestFromEnvInvalid(t *testing.T) {
	t.Setenv("KESHI_SHARDS", "many")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
}

func TestFromViper(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set(KeyStorage, StorageDisk)
	v.Set(KeyDiskPath, "/tmp/keshi")

	assert.Equal(t, Config{Storage: "disk", Shards: 16, DiskPath: "/tmp/keshi", DiskCompression: 3}, FromViper(v))
}

func TestOptions(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		opts, closer, err := Config{}.Options()
		require.NoError(t, err)
		defer closer.Close()
		assert.IsType(t, &storage.Memory{}, opts.Storage)
		assert.Equal(t, cache.DefaultCleanupInterval, opts.CleanupInterval)
	})

	t.Run("sharded", func(t *testing.T) {
		opts, closer, err := Config{Storage: "sharded", Shards: 4, CleanupInterval: "off"}.Options()
		require.NoError(t, err)
		defer closer.Close()
		assert.IsType(t, &storage.Sharded{}, opts.Storage)
		assert.Equal(t, cache.NoCleanup, opts.CleanupInterval)
	})

	t.Run("disk", func(t *testing.T) {
		opts, closer, err := Config{Storage: "disk", DiskPath: t.TempDir()}.Options()
		require.NoError(t, err)
		assert.IsType(t, &storage.Disk{}, opts.Storage)
		assert.NoError(t, closer.Close())
	})

	t.Run("errors", func(t *testing.T) {
		for _, cfg := range []Config{
			{Storage: "redis"},
			{Storage: "sharded", Shards: 0},
			{Storage: "disk"},
			{CleanupInterval: "whenever"},
		} {
			_, _, err := cfg.Options()
			require.Error(t, err, "%+v", cfg)
			assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
		}
	})
}

func TestOptionsExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })

	opts, closer, err := Config{Storage: "disk", DiskPath: "~/entries"}.Options()
	require.NoError(t, err)
	defer closer.Close()
	assert.IsType(t, &storage.Disk{}, opts.Storage)
	assert.DirExists(t, filepath.Join(home, "entries"))
}

func TestYAMLRoundTrip(t *testing.T) {
	cfg := Config{CleanupInterval: "30s", Storage: "sharded", Shards: 8, DiskCompression: 3}
	out, err := cfg.YAML()
	require.NoError(t, err)
	assert.Contains(t, string(out), "cleanup_interval: 30s")

	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewReader(out)))
	assert.Equal(t, cfg, FromViper(v))
}
