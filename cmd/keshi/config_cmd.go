package main

import (
	"github.com/krisalay/keshi/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long: "Print the configuration merged from flags, KESHI_* environment variables and the config file.\n" +
		"The output can be saved as keshi.yaml in the user config directory.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.FromViper(settings)
		if _, err := config.ParseInterval(cfg.CleanupInterval); err != nil {
			return err
		}
		out, err := cfg.YAML()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}
