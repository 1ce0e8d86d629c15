package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/user/adboard/internal/config"
	"github.com/user/adboard/internal/runner"
)

var boardsCmd = &cobra.Command{
	Use:   "boards [config.yaml]",
	Short: "List the boards and lists reachable with a target's credentials",
	Long:  "Show every open board and its lists, marking the board and lists the target file points at.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		paths := targetPaths(settings, args)
		if len(paths) == 0 {
			return fmt.Errorf("no target file configured")
		}
		t, err := config.LoadTarget(paths[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		client := runner.NewBoardClient(settings, t)
		boards, err := client.Boards(ctx)
		if err != nil {
			return fmt.Errorf("failed to list boards: %w", err)
		}

		headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
		dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

		if len(boards) == 0 {
			fmt.Println("No open boards.")
			return nil
		}
		for _, b := range boards {
			marker := " "
			if strings.EqualFold(b.Name, t.BoardName) {
				marker = "*"
			}
			fmt.Printf("%s %s %s\n", marker, headerStyle.Render(b.Name), dimStyle.Render(b.ID))

			lists, err := client.Lists(ctx, b.ID)
			if err != nil {
				return fmt.Errorf("failed to list lists of %s: %w", b.Name, err)
			}
			for _, l := range lists {
				tracked := ""
				if marker == "*" && (strings.EqualFold(l.Name, t.UnreviewedList) || strings.EqualFold(l.Name, t.ReviewedList)) {
					tracked = dimStyle.Render(" (tracked)")
				}
				fmt.Printf("    - %s%s\n", l.Name, tracked)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(boardsCmd)
}
