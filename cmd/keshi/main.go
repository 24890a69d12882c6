// Package main provides the keshi CLI: a demo walk-through and a load benchmark
// for the memoizing cache.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/jmgilman/go/errors"
	cache "github.com/krisalay/keshi"
	"github.com/krisalay/keshi/config"
	"github.com/krisalay/keshi/types"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version as provided by the build.
	Version = "unknown (built from source)"

	configFile string
	settings   = viper.New()
	logger     = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "keshi"})

	rootCmd = &cobra.Command{
		Use:           "keshi",
		Short:         "An in-process memoizing cache",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return loadConfig()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, toml or json)")
	rootCmd.PersistentFlags().String("cleanup-interval", "", `sweep period ("30s", "5 mins") or "off"`)
	rootCmd.PersistentFlags().String("storage", config.StorageMemory, "storage adapter: memory, sharded or disk")
	rootCmd.PersistentFlags().Int("shards", 16, "shard count for sharded storage")
	rootCmd.PersistentFlags().String("disk-path", "", "directory for disk storage")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	config.SetDefaults(settings)
	_ = settings.BindPFlag(config.KeyCleanupInterval, rootCmd.PersistentFlags().Lookup("cleanup-interval"))
	_ = settings.BindPFlag(config.KeyStorage, rootCmd.PersistentFlags().Lookup("storage"))
	_ = settings.BindPFlag(config.KeyShards, rootCmd.PersistentFlags().Lookup("shards"))
	_ = settings.BindPFlag(config.KeyDiskPath, rootCmd.PersistentFlags().Lookup("disk-path"))
	_ = settings.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	settings.SetEnvPrefix("keshi")
	settings.AutomaticEnv()

	rootCmd.AddCommand(demoCmd, benchCmd, configCmd)
}

func loadConfig() error {
	if settings.GetBool("debug") {
		logger.SetLevel(log.DebugLevel)
	}

	if configFile != "" {
		settings.SetConfigFile(configFile)
		if err := settings.ReadInConfig(); err != nil {
			return errors.Wrapf(err, errors.CodeInvalidConfig, "read config %s", configFile)
		}
	} else {
		dirs, err := gap.NewScope(gap.User, "keshi").ConfigDirs()
		if err != nil {
			return errors.Wrap(err, errors.CodeInvalidConfig, "find configuration directories")
		}
		for _, d := range dirs {
			settings.AddConfigPath(d)
		}
		settings.SetConfigName("keshi")
		if err := settings.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				logger.Warn("Could not parse configuration file", "err", err)
			}
		}
	}

	if used := settings.ConfigFileUsed(); used != "" {
		logger.Debug("Using configuration file", "path", used)
	}
	return nil
}

// openCache builds a cache from the merged flag, env and file settings.
func openCache(m types.Metrics) (*cache.Cache, io.Closer, error) {
	cfg := config.FromViper(settings)
	opts, closer, err := cfg.Options()
	if err != nil {
		return nil, nil, err
	}
	opts.Metrics = m
	opts.Logger = logger

	logger.Debug("Opening cache", "storage", cfg.Storage, "cleanup_interval", opts.CleanupInterval)
	return cache.New(opts), closer, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("keshi failed", "error", err)
		stop()
		os.Exit(1)
	}
}
