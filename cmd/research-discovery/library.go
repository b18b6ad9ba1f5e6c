// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-discovery/internal/search"
	"github.com/pdiddy/research-discovery/pkg/types"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage a user's saved papers and knowledge bases",
	Long: `Library manages the per-user paper library that provides research
context to search and the paper set for literature reviews.`,
}

var librarySaveCmd = &cobra.Command{
	Use:   "save <arxiv-id>",
	Short: "Look up an arXiv paper and save it to the library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		kb, _ := cmd.Flags().GetString("kb")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		r, err := a.explorer.Lookup(ctx, args[0])
		if err != nil {
			return err
		}
		paper, err := a.store.SavePaper(ctx, types.LibraryPaper{
			ID:       r.Identifier,
			UserID:   user,
			Title:    r.Title,
			Authors:  r.Authors,
			Abstract: r.Abstract,
			Year:     r.Year,
			Topics:   r.Topics,
			URL:      r.URL,
		})
		if err != nil {
			return err
		}
		if kb != "" {
			if err := a.store.AddToKnowledgeBase(ctx, user, kb, paper.ID); err != nil {
				return err
			}
		}
		fmt.Fprintf(os.Stderr, "Saved %s: %s\n", paper.ID, paper.Title)
		return nil
	},
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List papers in the library or one knowledge base",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		kb, _ := cmd.Flags().GetString("kb")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var papers []types.LibraryPaper
		if kb != "" {
			papers, err = a.store.KnowledgeBasePapers(cmd.Context(), user, kb)
		} else {
			papers, err = a.store.Papers(cmd.Context(), user, nil)
		}
		if err != nil {
			return err
		}
		if len(papers) == 0 {
			fmt.Println("Library is empty.")
			return nil
		}

		fmt.Printf("%-20s  %-60s  %-20s  %s\n", "ID", "Title", "Authors", "Year")
		fmt.Println(strings.Repeat("-", 110))
		for _, p := range papers {
			title := p.Title
			if len([]rune(title)) > 60 {
				title = string([]rune(title)[:57]) + "..."
			}
			fmt.Printf("%-20s  %-60s  %-20s  %d\n", p.ID, title, search.FormatAuthors(p.Authors), p.Year)
		}
		fmt.Printf("\n%d papers\n", len(papers))
		return nil
	},
}

var libraryDeleteCmd = &cobra.Command{
	Use:   "delete <paper-id>",
	Short: "Remove a paper from the library and its knowledge bases",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.store.DeletePaper(cmd.Context(), user, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Deleted %s\n", args[0])
		return nil
	},
}

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Manage knowledge bases",
}

var kbCreateCmd = &cobra.Command{
	Use:   "create <name> [paper-id...]",
	Short: "Create a knowledge base from library papers",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		description, _ := cmd.Flags().GetString("description")
		tags, _ := cmd.Flags().GetStringSlice("tags")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		kb, err := a.store.CreateKnowledgeBase(cmd.Context(), types.KnowledgeBase{
			UserID:      user,
			Name:        args[0],
			Description: description,
			Tags:        tags,
		}, args[1:])
		if err != nil {
			return err
		}
		fmt.Println(kb.ID)
		return nil
	},
}

var kbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List knowledge bases",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		kbs, err := a.store.KnowledgeBases(cmd.Context(), user)
		if err != nil {
			return err
		}
		if len(kbs) == 0 {
			fmt.Println("No knowledge bases.")
			return nil
		}
		fmt.Printf("%-36s  %-40s  %6s  %s\n", "ID", "Name", "Papers", "Updated")
		fmt.Println(strings.Repeat("-", 100))
		for _, kb := range kbs {
			fmt.Printf("%-36s  %-40s  %6d  %s\n", kb.ID, kb.Name, kb.PaperCount, kb.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var kbDeleteCmd = &cobra.Command{
	Use:   "delete <kb-id>",
	Short: "Delete a knowledge base; its papers stay in the library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.store.DeleteKnowledgeBase(cmd.Context(), user, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Deleted knowledge base %s\n", args[0])
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{librarySaveCmd, libraryListCmd} {
		c.Flags().String("user", "local", "library owner")
		c.Flags().String("kb", "", "knowledge base id")
	}
	for _, c := range []*cobra.Command{libraryDeleteCmd, kbCreateCmd, kbListCmd, kbDeleteCmd} {
		c.Flags().String("user", "local", "library owner")
	}
	kbCreateCmd.Flags().String("description", "", "knowledge base description")
	kbCreateCmd.Flags().StringSlice("tags", nil, "knowledge base tags")

	kbCmd.AddCommand(kbCreateCmd, kbListCmd, kbDeleteCmd)
	libraryCmd.AddCommand(librarySaveCmd, libraryListCmd, libraryDeleteCmd, kbCmd)
	rootCmd.AddCommand(libraryCmd)
}
