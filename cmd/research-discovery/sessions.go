// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-discovery/internal/store"
	"github.com/pdiddy/research-discovery/pkg/types"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List, export, and inspect recorded search sessions",
}

// --- list subcommand ---

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show a user's most recent search sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		sessions, err := a.store.ListSessions(cmd.Context(), user, limit)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions recorded.")
			return nil
		}

		fmt.Printf("%-36s  %-20s  %-50s  %-6s  %s\n", "ID", "Created", "Question", "Papers", "Confidence")
		fmt.Println(strings.Repeat("-", 130))
		for _, s := range sessions {
			q := s.ResearchQuestion
			if len([]rune(q)) > 50 {
				q = string([]rune(q)[:47]) + "..."
			}
			fmt.Printf("%-36s  %-20s  %-50s  %-6d  %.2f\n",
				s.ID, s.CreatedAt.Format("2006-01-02 15:04:05"), q, len(s.Ranked), s.ConfidenceScore)
		}
		return nil
	},
}

// --- export subcommand ---

var sessionsExportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Write a recorded session to a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = args[0] + ".yaml"
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		session, err := a.store.Session(cmd.Context(), user, args[0])
		if err != nil {
			return err
		}
		if err := store.WriteSessionFile(out, session); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported session %s to %s\n", session.ID, out)
		return nil
	},
}

// --- show subcommand ---

var sessionsShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Print the ranked papers of an exported session file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sf, err := store.ReadSessionFile(args[0])
		if err != nil {
			return err
		}
		s := sf.Session
		fmt.Printf("Session %s (%s)\n", s.ID, s.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Question: %s\n", s.ResearchQuestion)
		fmt.Printf("%d strategies, %d candidates, %d ranked\n\n",
			sf.Summary.Strategies, sf.Summary.Candidates, sf.Summary.Ranked)

		formatSearchResponse(types.SearchResponse{
			Papers:               s.Ranked,
			TotalCandidates:      s.TotalCandidates,
			QueryStrategies:      s.QueryStrategies,
			ResearchInsights:     s.Insights,
			ConfidenceScore:      s.ConfidenceScore,
			SuggestedRefinements: s.Insights.SuggestedRefinements,
			RelatedResearchAreas: s.Insights.RelatedAreas,
		}, os.Stdout)
		return nil
	},
}

func init() {
	sessionsListCmd.Flags().String("user", "local", "user whose sessions are listed")
	sessionsListCmd.Flags().Int("limit", store.DefaultHistoryLimit, "number of sessions to show")

	sessionsExportCmd.Flags().String("user", "local", "user that owns the session")
	sessionsExportCmd.Flags().String("out", "", "output file (default <session-id>.yaml)")

	sessionsCmd.AddCommand(sessionsListCmd, sessionsExportCmd, sessionsShowCmd)
	rootCmd.AddCommand(sessionsCmd)
}
