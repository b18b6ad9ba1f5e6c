// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the research-discovery CLI and server.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/research-discovery/internal/logging"
	"github.com/pdiddy/research-discovery/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is built from configuration before any subcommand runs.
var logger = zap.NewNop()

// loadedSecrets holds API keys loaded from the secrets directory at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the research-discovery CLI.
var rootCmd = &cobra.Command{
	Use:   "research-discovery",
	Short: "LLM-assisted research paper discovery over arXiv",
	Long: `research-discovery turns a research question into several search
strategies, fetches candidates from arXiv (and optionally Semantic Scholar
and OpenAlex) concurrently, and ranks them with a single LLM synthesis call.

Run "serve" for the HTTP API, or use the search, discover, review, and
sessions subcommands directly.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log, err := logging.New(logConfig())
		if err != nil {
			return err
		}
		logger = log

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", zap.Strings("keys", keys))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	setDefaults()

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./research-discovery.yaml or ~/.config/research-discovery/research-discovery.yaml)")
	pf.String("secrets-dir", ".secrets/", "directory of secret files (llm-api-key, semantic-scholar-api-key, openalex-email)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.Bool("dev", false, "human-readable development logging")
	pf.String("data-dir", "", "directory holding discovery.db")

	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("log.development", pf.Lookup("dev"))
	_ = viper.BindPFlag("store.data_dir", pf.Lookup("data-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("research-discovery")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "research-discovery"))
		}
	}

	viper.SetEnvPrefix("RESEARCH_DISCOVERY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
