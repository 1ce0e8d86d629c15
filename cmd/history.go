package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/user/adboard/internal/config"
	"github.com/user/adboard/internal/db"
)

var (
	jsonOutput      bool
	plaintextOutput bool
	showRuns        bool
	historyLimit    int
)

var historyCmd = &cobra.Command{
	Use:   "history [query]",
	Short: "Show cards created by past runs",
	Long:  "List journaled cards, newest first, optionally matching a query against title, link and board.",
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		settings, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		store, err := db.NewStore(settings.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close()

		if showRuns {
			runs, err := store.ListRuns(historyLimit)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}
			if jsonOutput {
				return outputJSON(runs)
			}
			return outputRuns(runs)
		}

		cards, err := store.SearchCards(query, historyLimit)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		if jsonOutput {
			return outputJSON(cards)
		}
		if plaintextOutput {
			return outputPlaintext(cards)
		}
		return outputDefault(cards)
	},
}

func outputJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func outputPlaintext(cards []db.CardRecord) error {
	for _, c := range cards {
		fmt.Printf("%s\t%s\t%s\t%s\n", c.PostedDate.Format("2006-01-02"), c.BoardName, c.Title, c.Href)
	}
	return nil
}

func outputDefault(cards []db.CardRecord) error {
	if len(cards) == 0 {
		fmt.Println("No cards found.")
		return nil
	}
	boardStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	for i, c := range cards {
		fmt.Printf("%d. %s %s : %s\n   %s\n", i+1, boardStyle.Render("["+c.BoardName+"]"),
			c.PostedDate.Format("2006-01-02"), truncate(c.Title, 80), c.Href)
		fmt.Println()
	}
	return nil
}

func outputRuns(runs []db.Run) error {
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}
	failed := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	for _, r := range runs {
		status := r.Status
		if r.Status == "failed" {
			status = failed.Render(status)
		}
		if r.DryRun {
			status += " (dry run)"
		}
		fmt.Printf("%s  %s  %s\n", r.StartedAt.Local().Format("2006-01-02 15:04"), status, r.ConfigPath)
		fmt.Printf("   board %q: %d fetched, %d matched, %d created\n", r.BoardName, r.Fetched, r.Hits, r.Created)
		if r.Error != "" {
			fmt.Printf("   %s\n", truncate(r.Error, 120))
		}
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func init() {
	historyCmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	historyCmd.Flags().BoolVarP(&plaintextOutput, "plaintext", "p", false, "Output as plaintext")
	historyCmd.Flags().BoolVarP(&showRuns, "runs", "r", false, "List runs instead of cards")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of entries")
	rootCmd.AddCommand(historyCmd)
}
