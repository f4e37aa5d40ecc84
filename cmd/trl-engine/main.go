// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the trl-engine CLI.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/trl-engine/internal/secrets"
	"github.com/pdiddy/trl-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg and logger are populated in PersistentPreRunE before any command runs.
var (
	cfg    types.Config
	logger *slog.Logger
)

// envKeys are config keys that can be set from TRL_ENGINE_* variables
// without appearing in a config file.
var envKeys = []string{
	"log_level",
	"store.driver", "store.path", "store.uri", "store.database", "store.connect_timeout",
	"scorer.transport", "scorer.command", "scorer.endpoint", "scorer.token",
	"scorer.image", "scorer.runtime",
	"scorer.timeout", "scorer.max_retries",
	"features.window_years", "features.keyword_normalizer",
	"server.addr", "server.cors_origins",
	"harvest.timeout", "harvest.max_results", "harvest.patentsview_api_key", "harvest.openalex_email",
}

var rootCmd = &cobra.Command{
	Use:   "trl-engine",
	Short: "Estimate the Technology Readiness Level of a technology",
	Long: `trl-engine estimates how mature a technology is on the 1-9 TRL scale.
It derives features from stored patents, publications and market reports,
sends them to an external scoring model, labels the score, and records
every assessment in an append-only history.

Load records with ingest or harvest, run assess, and inspect results with
history or through the HTTP API started by serve.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		secrets.Apply(&c, s)

		l, err := newLogger(c.LogLevel, os.Stderr)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			l.Debug("loaded secrets", "keys", keys)
		}

		cfg, logger = c, l
		slog.SetDefault(l)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ./trl-engine.yaml or ~/.config/trl-engine/config.yaml)")
	flags.String("log-level", "", "log level: debug, info, warn, error (default info)")
	flags.String("store-driver", "", "record and history backend: sqlite or mongo (default sqlite)")
	flags.String("store-path", "", "SQLite database file (default data/trl.db)")
	flags.String("store-uri", "", "MongoDB connection string")

	viper.BindPFlag("log_level", flags.Lookup("log-level"))
	viper.BindPFlag("store.driver", flags.Lookup("store-driver"))
	viper.BindPFlag("store.path", flags.Lookup("store-path"))
	viper.BindPFlag("store.uri", flags.Lookup("store-uri"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("trl-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "trl-engine"))
		}
	}

	bindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// bindEnv maps TRL_ENGINE_STORE_PATH style variables onto nested keys.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("TRL_ENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		v.BindEnv(key)
	}
}

// loadConfig decodes v into a Config and fills defaults.
func loadConfig(v *viper.Viper) (types.Config, error) {
	var c types.Config
	if err := v.Unmarshal(&c); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	c.ApplyDefaults()
	return c, nil
}

// newLogger builds the text logger shared by every component.
func newLogger(level string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
