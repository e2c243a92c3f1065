// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the preprint-herald CLI.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/preprint-herald/internal/config"
	"github.com/pdiddy/preprint-herald/internal/logger"
	"github.com/pdiddy/preprint-herald/internal/secrets"
	"github.com/pdiddy/preprint-herald/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// rootCmd is the base command for the preprint-herald CLI.
var rootCmd = &cobra.Command{
	Use:   "preprint-herald",
	Short: "Announce new arXiv preprints in a chat channel",
	Long: `preprint-herald watches the monthly arXiv listing of one category, looks up
metadata for every listed preprint, and posts the ones it has not seen before
to a Telegram channel, optionally with an AI-written summary.

Processed identifiers are kept in a SQLite or PostgreSQL table so repeated
runs only announce new entries.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", s.Keys())
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./preprint-herald.yaml or ~/.config/preprint-herald/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("preprint-herald")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "preprint-herald"))
		}
	}

	config.SetDefaults(viper.GetViper())
	if err := config.BindEnv(viper.GetViper()); err != nil {
		fmt.Fprintln(os.Stderr, "Binding environment:", err)
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig resolves and validates the settings a command needs.
func loadConfig(scope config.Scope) (types.Config, error) {
	cfg := config.Load(viper.GetViper(), loadedSecrets)
	if err := config.Validate(cfg, scope); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// newLogger builds the service logger from cfg.
func newLogger(cfg types.LogConfig) (logger.Logger, error) {
	return logger.New(logger.Config{Level: cfg.Level, OutputPaths: cfg.OutputPaths})
}

func newHTTPClient(cfg types.HTTPConfig) *http.Client {
	return &http.Client{Timeout: cfg.Timeout}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
