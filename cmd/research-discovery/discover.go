// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-discovery/internal/discovery"
	"github.com/pdiddy/research-discovery/internal/search"
	"github.com/pdiddy/research-discovery/pkg/types"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Browse arXiv without the LLM (query, trending, recommended, category, new)",
}

// browseFunc runs one browse request against the explorer.
type browseFunc func(ctx context.Context, e *discovery.Explorer, args []string, limit int) ([]types.SearchResult, error)

func browseCmd(use, short string, nargs cobra.PositionalArgs, def int, fn browseFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  nargs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			limit, _ := cmd.Flags().GetInt("limit")
			results, err := fn(cmd.Context(), a.explorer, args, discovery.ClampLimit(limit, def))
			if err != nil {
				return err
			}

			out := search.SearchOutput{Results: results}
			if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
				return search.FormatJSON(out, os.Stdout)
			}
			search.FormatTable(out, os.Stdout)
			return nil
		},
	}
	cmd.Flags().Int("limit", def, "number of papers (1-50)")
	cmd.Flags().Bool("json", false, "output results as JSON")
	return cmd
}

func init() {
	query := browseCmd("query <text>", "Search arXiv directly", cobra.MinimumNArgs(1), discovery.DefaultDiscoverLimit,
		func(ctx context.Context, e *discovery.Explorer, args []string, limit int) ([]types.SearchResult, error) {
			return e.Discover(ctx, strings.Join(args, " "), 0, limit, "", "")
		})

	trending := browseCmd("trending", "Recent papers in featured categories", cobra.NoArgs, discovery.DefaultTrendingLimit,
		func(ctx context.Context, e *discovery.Explorer, _ []string, limit int) ([]types.SearchResult, error) {
			return e.Trending(ctx, limit)
		})

	recommended := browseCmd("recommended", "Relevance-ranked papers in featured categories", cobra.NoArgs, discovery.DefaultRecommendLimit,
		func(ctx context.Context, e *discovery.Explorer, _ []string, limit int) ([]types.SearchResult, error) {
			return e.Recommended(ctx, limit)
		})

	category := browseCmd("category <cat>", "Latest submissions in an arXiv category (e.g. cs.LG)", cobra.ExactArgs(1), discovery.DefaultCategoryLimit,
		func(ctx context.Context, e *discovery.Explorer, args []string, limit int) ([]types.SearchResult, error) {
			return e.Category(ctx, args[0], limit)
		})

	latest := browseCmd("new <cat>", "Today's new listing for an arXiv category", cobra.ExactArgs(1), discovery.DefaultCategoryLimit,
		func(ctx context.Context, e *discovery.Explorer, args []string, limit int) ([]types.SearchResult, error) {
			return e.Latest(ctx, args[0], limit)
		})

	discoverCmd.AddCommand(query, trending, recommended, category, latest)
	rootCmd.AddCommand(discoverCmd)
}
