// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-discovery/internal/store"
	"github.com/pdiddy/research-discovery/pkg/types"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Write a literature review over papers in the library",
	Long: `Review synthesizes a structured literature review from papers saved in
the user's library. Select papers with --paper-ids and/or --kb; with
neither, the whole library is reviewed. Output is Markdown unless --json
is given.`,
	RunE: runReview,
}

func runReview(cmd *cobra.Command, args []string) error {
	focus, _ := cmd.Flags().GetString("focus")
	if focus == "" {
		return fmt.Errorf("--focus is required")
	}
	user, _ := cmd.Flags().GetString("user")
	ids, _ := cmd.Flags().GetStringSlice("paper-ids")
	kb, _ := cmd.Flags().GetString("kb")
	maxPapers, _ := cmd.Flags().GetInt("max-papers")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	papers, err := selectReviewPapers(cmd.Context(), a.store, user, ids, kb)
	if err != nil {
		return err
	}
	review, err := a.reviewer.Review(cmd.Context(), papers, focus, maxPapers)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(review)
	}
	writeReviewMarkdown(review, os.Stdout)
	return nil
}

func selectReviewPapers(ctx context.Context, st *store.Store, user string, ids []string, kb string) ([]types.LibraryPaper, error) {
	if len(ids) == 0 && kb == "" {
		return st.Papers(ctx, user, nil)
	}
	var papers []types.LibraryPaper
	if len(ids) > 0 {
		got, err := st.Papers(ctx, user, ids)
		if err != nil {
			return nil, err
		}
		papers = append(papers, got...)
	}
	if kb != "" {
		got, err := st.KnowledgeBasePapers(ctx, user, kb)
		if err != nil {
			return nil, err
		}
		papers = append(papers, got...)
	}

	seen := make(map[string]bool, len(papers))
	out := papers[:0]
	for _, p := range papers {
		if !seen[p.ID] {
			seen[p.ID] = true
			out = append(out, p)
		}
	}
	return out, nil
}

func writeReviewMarkdown(r types.LiteratureReview, w io.Writer) {
	fmt.Fprintf(w, "# %s\n\n", r.Title)
	if r.Abstract != "" {
		fmt.Fprintf(w, "%s\n\n", r.Abstract)
	}
	for _, s := range r.Sections {
		fmt.Fprintf(w, "## %s\n\n%s\n\n", s.Title, s.Content)
	}
	if r.MethodologySynthesis != "" {
		fmt.Fprintf(w, "## Methodology\n\n%s\n\n", r.MethodologySynthesis)
	}
	writeMarkdownList(w, "Conclusions", r.Conclusions)
	writeMarkdownList(w, "Research Gaps", r.ResearchGaps)
	writeMarkdownList(w, "Future Directions", r.FutureDirections)

	if len(r.PaperRelationships) > 0 {
		keys := make([]string, 0, len(r.PaperRelationships))
		for k := range r.PaperRelationships {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(w, "## Paper Relationships")
		fmt.Fprintln(w)
		for _, k := range keys {
			fmt.Fprintf(w, "- **%s**: %s\n", k, r.PaperRelationships[k])
		}
		fmt.Fprintln(w)
	}
	writeMarkdownList(w, "References", r.Citations)
	if r.Degraded {
		fmt.Fprintln(w, "_Generated without the language model; sections are placeholders._")
	}
}

func writeMarkdownList(w io.Writer, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "## %s\n\n", heading)
	for _, it := range items {
		fmt.Fprintf(w, "- %s\n", it)
	}
	fmt.Fprintln(w)
}

func init() {
	reviewCmd.Flags().String("focus", "", "research focus of the review (required)")
	reviewCmd.Flags().String("user", "local", "user whose library is reviewed")
	reviewCmd.Flags().StringSlice("paper-ids", nil, "library paper ids to include")
	reviewCmd.Flags().String("kb", "", "knowledge base whose papers are included")
	reviewCmd.Flags().Int("max-papers", 20, "maximum number of papers analyzed (at most 50)")
	reviewCmd.Flags().Bool("json", false, "output the review as JSON")

	rootCmd.AddCommand(reviewCmd)
}
