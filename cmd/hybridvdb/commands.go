package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperjump/hybridvdb/internal/cli"
	"github.com/hyperjump/hybridvdb/internal/config"
	"github.com/hyperjump/hybridvdb/internal/models"
)

// remoteOptions are the flags of commands that can talk to a running server
// or run against an in-process router.
type remoteOptions struct {
	serverURL string
	output    string
}

func (r *remoteOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.serverURL, "server", defaultServerURL, `server URL (use --server "" to run in-process)`)
	cmd.Flags().StringVarP(&r.output, "output", "o", "text", "output format: text or json")
}

// withComponents runs fn against freshly initialized in-process components.
// The default document store is in memory, so nothing outlives the command.
func withComponents(opts *rootOptions, fn func(ctx context.Context, cfg *config.Config, comps *Components) error) error {
	cfg, _, logger, err := opts.setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer comps.Close()
	return fn(context.Background(), cfg, comps)
}

// buildQuery joins positional arguments into one query string.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		ro remoteOptions
		k  int
	)
	cmd := &cobra.Command{
		Use:   "search [flags] <query>",
		Short: "Run a similarity query",
		Long:  `Query is all remaining arguments joined by spaces.`,
		Example: `  hybridvdb search "vector databases"
  hybridvdb search -k 10 --output json semantic caching
  hybridvdb search --server "" "one-shot in-process query"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseFormat(ro.output)
			if err != nil {
				return err
			}
			req := models.SearchRequest{Query: buildQuery(args), K: k}
			if req.Query == "" {
				return errors.New("query cannot be empty")
			}
			var resp models.SearchResponse
			if ro.serverURL != "" {
				if err := postJSON(apiURL(ro.serverURL, "/api/v1/search"), req, &resp); err != nil {
					return err
				}
				return cli.WriteSearchResults(cmd.OutOrStdout(), &resp, format)
			}
			return withComponents(opts, func(ctx context.Context, cfg *config.Config, comps *Components) error {
				if err := req.Validate(cfg.Server.DefaultK, cfg.Server.MaxK); err != nil {
					return err
				}
				out, err := comps.Router.Search(ctx, req.Query, req.K)
				if err != nil {
					return err
				}
				return cli.WriteSearchResults(cmd.OutOrStdout(), out, format)
			})
		},
	}
	ro.bind(cmd)
	cmd.Flags().IntVarP(&k, "top-k", "k", 0, "number of results (default from server.default_k)")
	return cmd
}

func newIngestCmd(opts *rootOptions) *cobra.Command {
	var ro remoteOptions
	cmd := &cobra.Command{
		Use:   "ingest [flags] <path>",
		Short: "Ingest a file or directory into the permanent partition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseFormat(ro.output)
			if err != nil {
				return err
			}
			abs, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("invalid path: %w", err)
			}
			var resp models.IngestResponse
			if ro.serverURL != "" {
				if err := postJSON(apiURL(ro.serverURL, "/api/v1/ingest"), models.IngestRequest{Path: abs}, &resp); err != nil {
					return err
				}
				return cli.WriteIngest(cmd.OutOrStdout(), &resp, format)
			}
			return withComponents(opts, func(ctx context.Context, _ *config.Config, comps *Components) error {
				out, err := comps.Ingester.IngestPath(ctx, abs)
				if err != nil {
					return err
				}
				return cli.WriteIngest(cmd.OutOrStdout(), &out, format)
			})
		},
	}
	ro.bind(cmd)
	return cmd
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var ro remoteOptions
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show partition, anchor and cache status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseFormat(ro.output)
			if err != nil {
				return err
			}
			var st models.Status
			if ro.serverURL != "" {
				if err := getJSON(apiURL(ro.serverURL, "/api/v1/status"), &st); err != nil {
					return err
				}
				return cli.WriteStatus(cmd.OutOrStdout(), &st, format)
			}
			return withComponents(opts, func(ctx context.Context, _ *config.Config, comps *Components) error {
				out, err := comps.Router.Status(ctx)
				if err != nil {
					return err
				}
				return cli.WriteStatus(cmd.OutOrStdout(), &out, format)
			})
		},
	}
	ro.bind(cmd)
	return cmd
}

func newDecayCmd(opts *rootOptions) *cobra.Command {
	var ro remoteOptions
	cmd := &cobra.Command{
		Use:   "decay",
		Short: "Run anchor and cache decay now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseFormat(ro.output)
			if err != nil {
				return err
			}
			var res models.MaintenanceResult
			if ro.serverURL != "" {
				if err := postJSON(apiURL(ro.serverURL, "/api/v1/maintenance/decay"), nil, &res); err != nil {
					return err
				}
				return cli.WriteMaintenance(cmd.OutOrStdout(), &res, format)
			}
			return withComponents(opts, func(ctx context.Context, _ *config.Config, comps *Components) error {
				out, err := comps.Router.Maintain(ctx)
				if err != nil {
					return err
				}
				return cli.WriteMaintenance(cmd.OutOrStdout(), &out, format)
			})
		},
	}
	ro.bind(cmd)
	return cmd
}
