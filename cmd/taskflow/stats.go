package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/francescaartes/task-management-system/internal/store"
)

var (
	statsHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statsWarnStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	statsOKStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	statsTotalStyle  = lipgloss.NewStyle().Bold(true)
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-category task statistics",
	Long: `Show the analytics dashboard summary: total and overdue counts, and a
category-by-status matrix of your tasks. The synthetic "All Categories"
row sums every category.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := requireUser(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		st, err := openStore(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		a, err := st.GetAnalytics(userID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		renderStats(a)
	},
}

func renderStats(a *store.Analytics) {
	fmt.Println(statsHeaderStyle.Render(fmt.Sprintf("%s: %d tasks", a.Username, a.TotalTasks)))
	if a.OverdueTasks > 0 {
		fmt.Println(statsWarnStyle.Render(fmt.Sprintf("%d overdue", a.OverdueTasks)))
	} else {
		fmt.Println(statsOKStyle.Render("nothing overdue"))
	}
	fmt.Println()

	// All Categories first, then real categories sorted
	categories := make([]string, 0, len(a.Matrix))
	for cat := range a.Matrix {
		if cat != store.AllCategories {
			categories = append(categories, cat)
		}
	}
	sort.Strings(categories)
	categories = append([]string{store.AllCategories}, categories...)

	fmt.Println(statsHeaderStyle.Render(fmt.Sprintf("%-20s %7s %7s %12s %6s",
		"Category", "Total", "To Do", "In Progress", "Done")))
	for _, cat := range categories {
		c := a.Matrix[cat]
		line := fmt.Sprintf("%-20s %7d %7d %12d %6d", cat, c.Total, c.ToDo, c.InProgress, c.Done)
		if cat == store.AllCategories {
			line = statsTotalStyle.Render(line)
		}
		fmt.Println(line)
	}
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
