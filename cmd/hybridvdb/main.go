/*
Package main is the entry point for the hybridvdb CLI.

hybridvdb is a tiered vector search service: a hot/permanent/dynamic local
store, anchors that learn where queries cluster and pre-fetch around them,
a semantic cache, and a remote backend consulted on local misses.

Usage:

	hybridvdb [command]

Examples:

	hybridvdb server
	hybridvdb search "vector databases"
	hybridvdb search --server "" --output json "semantic caching"
	hybridvdb ingest ./docs
	hybridvdb status
	hybridvdb decay
*/
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/hybridvdb/internal/config"
	"github.com/hyperjump/hybridvdb/pkg/utils"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "none"
)

const (
	defaultConfigPath = "/usr/local/etc/hybridvdb/config.yaml"
	defaultServerURL  = "http://localhost:8000"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	debug      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "hybridvdb",
		Short: "Tiered vector search with predictive pre-fetching",
		Long: `hybridvdb answers similarity queries from three local partitions
(hot, permanent, dynamic) and falls back to a remote backend on a miss.
Anchors track where queries cluster and pre-fetch around them.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath, "config file path")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newServerCmd(opts))
	rootCmd.AddCommand(newSearchCmd(opts))
	rootCmd.AddCommand(newIngestCmd(opts))
	rootCmd.AddCommand(newStatusCmd(opts))
	rootCmd.AddCommand(newDecayCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "hybridvdb version %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}

// loadConfig loads config from path. When path is the default, config.yaml in
// the current directory wins if it exists, and a missing default file means
// built-in defaults. Returns the path actually loaded, or "" for defaults.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				cfg, err := config.Load(fallback)
				if err != nil {
					return nil, "", err
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			cfg := config.Default()
			if err := cfg.Validate(); err != nil {
				return nil, "", err
			}
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// setup loads the config and builds the logger for a command.
func (o *rootOptions) setup() (*config.Config, string, *zap.Logger, error) {
	cfg, path, err := loadConfig(o.configPath)
	if err != nil {
		return nil, "", nil, fmt.Errorf("load config: %w", err)
	}
	debug := cfg.Debug || o.debug
	logger, err := utils.NewLoggerWithLevel(debug, cfg.LogLevel)
	if err != nil {
		return nil, "", nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, path, logger, nil
}
