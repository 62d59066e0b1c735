// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the artifact-engine CLI.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/artifact-engine/internal/config"
	"github.com/pdiddy/artifact-engine/internal/logging"
	"github.com/pdiddy/artifact-engine/internal/secrets"
	"github.com/pdiddy/artifact-engine/internal/store"
	"github.com/pdiddy/artifact-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg and logger are populated by rootCmd's PersistentPreRunE.
var (
	cfg    *types.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "artifact-engine",
	Short: "Incrementally derive documents from upstream documents with an AI model",
	Long: `artifact-engine keeps a set of derived documents in step with the upstream
documents they come from. Each run collects the files that changed in either
store since the last commit, generates a derived document for new files, and
merges changes into existing ones. List entries named by the aggregation key
are collected into a shared side file, and every saved document can be
exported to a directory or an S3 bucket.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		used, err := config.Read(viper.GetViper())
		if err != nil {
			return err
		}
		c, err := config.Decode(viper.GetViper())
		if err != nil {
			return err
		}

		l, err := logging.New(c.Log)
		if err != nil {
			return err
		}
		logger = l
		if used != "" {
			logger.Debug("using config file", zap.String("path", used))
		}

		s, err := secrets.Load(".secrets/", logger)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", zap.Strings("keys", keys))
		}
		secrets.Apply(c, s)

		cfg = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./artifact-engine.yaml or ~/.config/artifact-engine/artifact-engine.yaml)")
	rootCmd.PersistentFlags().String("db", "", "artifact database path (default artifacts/artifacts.db)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")

	_ = viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	config.Setup(viper.GetViper(), cfgFile)
}

// openStore opens the configured artifact database.
func openStore() (*store.DB, error) {
	db, err := store.Open(cfg.Store.Path, cfg.Store.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", cfg.Store.Path, err)
	}
	return db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
