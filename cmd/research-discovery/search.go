// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-discovery/internal/search"
	"github.com/pdiddy/research-discovery/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <research question>",
	Short: "Run LLM-assisted discovery for a research question",
	Long: `Search generates three to five query strategies for the question,
fetches candidates for every strategy concurrently, and ranks them in one
LLM synthesis call. Without an LLM API key the deterministic fallback
strategies and discovery order are used.

The session is recorded in the local store under --user.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	req := types.NewSearchRequest(strings.Join(args, " "))
	req.MaxPapers, _ = cmd.Flags().GetInt("max-papers")
	req.TimeRangeYears, _ = cmd.Flags().GetInt("time-range")
	req.MethodologyFocus, _ = cmd.Flags().GetString("methodology")
	req.KnowledgeBaseID, _ = cmd.Flags().GetString("kb")
	req.ExcludeTopics, _ = cmd.Flags().GetStringSlice("exclude")
	user, _ := cmd.Flags().GetString("user")

	resp, err := a.service.Search(cmd.Context(), user, req)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	formatSearchResponse(resp, os.Stdout)
	return nil
}

func formatSearchResponse(resp types.SearchResponse, w io.Writer) {
	fmt.Fprintln(w, "Strategies:")
	for _, s := range resp.QueryStrategies {
		fmt.Fprintf(w, "  [%s] %s\n", s.StrategyType, s.Query)
	}
	fmt.Fprintln(w)

	if len(resp.Papers) == 0 {
		fmt.Fprintln(w, "No papers found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-4s  %-5s  %s\n",
		"Rank", "Title", "Authors", "Year", "Score", "Strategy")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, p := range resp.Papers {
		title := p.Title
		if len([]rune(title)) > 60 {
			title = string([]rune(title)[:57]) + "..."
		}
		year := ""
		if p.Year > 0 {
			year = fmt.Sprintf("%d", p.Year)
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-4s  %-5.0f  %s\n",
			p.RankPosition, title, search.FormatAuthors(p.Authors), year, p.RelevanceScore, p.DiscoveryStrategy)
	}

	fmt.Fprintf(w, "\n%d of %d candidates, confidence %.2f, %.1fs\n",
		len(resp.Papers), resp.TotalCandidates, resp.ConfidenceScore, resp.ProcessingTime)
	writeList(w, "Key themes", resp.ResearchInsights.KeyThemes)
	writeList(w, "Research gaps", resp.ResearchInsights.ResearchGaps)
	writeList(w, "Suggested refinements", resp.SuggestedRefinements)
	writeList(w, "Related areas", resp.RelatedResearchAreas)
}

func writeList(w io.Writer, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", heading)
	for _, it := range items {
		fmt.Fprintf(w, "  - %s\n", it)
	}
}

func init() {
	searchCmd.Flags().String("user", "local", "user id the session is recorded under")
	searchCmd.Flags().Int("max-papers", 20, "maximum number of ranked papers to return")
	searchCmd.Flags().Int("time-range", 0, "only consider papers from the last N years (0 for no limit)")
	searchCmd.Flags().String("methodology", "", "methodology focus (comma-separated)")
	searchCmd.Flags().StringSlice("exclude", nil, "topics to exclude")
	searchCmd.Flags().String("kb", "", "knowledge base id used as research context")
	searchCmd.Flags().Bool("json", false, "output the full response as JSON")

	rootCmd.AddCommand(searchCmd)
}
