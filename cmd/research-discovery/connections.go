// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-discovery/pkg/types"
)

var connectionsCmd = &cobra.Command{
	Use:   "connections <paper-id> <paper-id> [paper-id...]",
	Short: "Analyze connections between library papers",
	Long: `Connections relates two or more library papers: shared methods and
findings, themes, contradictions, knowledge gaps, and synthesis
opportunities. Output is Markdown unless --json is given.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runConnections,
}

func runConnections(cmd *cobra.Command, args []string) error {
	user, _ := cmd.Flags().GetString("user")
	depth, _ := cmd.Flags().GetString("depth")
	kinds, _ := cmd.Flags().GetStringSlice("types")
	noContradictions, _ := cmd.Flags().GetBool("no-contradictions")
	noGaps, _ := cmd.Flags().GetBool("no-gaps")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	papers, err := a.store.Papers(cmd.Context(), user, args)
	if err != nil {
		return err
	}
	analysis, err := a.analyzer.Analyze(cmd.Context(), papers, types.ConnectionAnalysisRequest{
		PaperIDs:              args,
		AnalysisTypes:         kinds,
		ConnectionDepth:       depth,
		IncludeContradictions: !noContradictions,
		IncludeKnowledgeGaps:  !noGaps,
	})
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(analysis)
	}
	writeConnectionsMarkdown(analysis, os.Stdout)
	return nil
}

func writeConnectionsMarkdown(r types.ConnectionAnalysis, w io.Writer) {
	if len(r.Connections) > 0 {
		fmt.Fprintln(w, "## Connections")
		fmt.Fprintln(w)
		for _, c := range r.Connections {
			fmt.Fprintf(w, "- %s ↔ %s (%s, %.2f): %s\n", c.Paper1ID, c.Paper2ID, c.ConnectionType, c.Strength, c.Description)
		}
		fmt.Fprintln(w)
	}
	var themes []string
	for _, t := range r.Themes {
		themes = append(themes, fmt.Sprintf("**%s** [%s]: %s", t.Theme, strings.Join(t.Papers, ", "), t.Description))
	}
	writeMarkdownList(w, "Themes", themes)

	var contradictions []string
	for _, c := range r.Contradictions {
		contradictions = append(contradictions, fmt.Sprintf("%s vs %s: %s", c.Paper1ID, c.Paper2ID, c.Description))
	}
	writeMarkdownList(w, "Contradictions", contradictions)

	var gaps []string
	for _, g := range r.KnowledgeGaps {
		gaps = append(gaps, g.Gap)
	}
	writeMarkdownList(w, "Knowledge Gaps", gaps)

	var opportunities []string
	for _, o := range r.SynthesisOpportunities {
		opportunities = append(opportunities, fmt.Sprintf("%s [%s]", o.Opportunity, strings.Join(o.PapersToCombine, ", ")))
	}
	writeMarkdownList(w, "Synthesis Opportunities", opportunities)

	if r.Degraded {
		fmt.Fprintln(w, "_No connections found; the language model was unavailable or returned nothing usable._")
	}
}

func init() {
	connectionsCmd.Flags().String("user", "local", "user whose library holds the papers")
	connectionsCmd.Flags().String("depth", "deep", "connection depth: surface, deep, or comprehensive")
	connectionsCmd.Flags().StringSlice("types", nil, "analysis types, e.g. methodology,findings")
	connectionsCmd.Flags().Bool("no-contradictions", false, "skip contradiction detection")
	connectionsCmd.Flags().Bool("no-gaps", false, "skip knowledge gap detection")
	connectionsCmd.Flags().Bool("json", false, "output the analysis as JSON")

	rootCmd.AddCommand(connectionsCmd)
}
