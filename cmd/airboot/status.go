package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/turel-data/airboot/internal/state"
)

var (
	statusRunID string
	statusLimit int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent provisioning runs",
	Long: `Display the run ledger.

Without flags, lists the most recent provisioning runs. With --run,
shows the recorded steps of a single run.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusRunID, "run", "", "Show the steps of a single run")
	statusCmd.Flags().IntVarP(&statusLimit, "limit", "n", 10, "Number of runs to list")
}

var (
	statusHeaderStyle = lipgloss.NewStyle().Bold(true)
	statusOKStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	statusFailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	statusDimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func runStatus(cmd *cobra.Command, args []string) error {
	dbPath := state.DefaultDBPath()
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("No runs recorded yet. Run 'airboot provision' first.")
		return nil
	}

	db, err := state.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open run ledger: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate run ledger: %w", err)
	}

	if statusRunID != "" {
		return showRun(db, statusRunID)
	}
	return listRuns(db, statusLimit)
}

func listRuns(db *state.DB, limit int) error {
	runs, err := db.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet. Run 'airboot provision' first.")
		return nil
	}

	fmt.Println(statusHeaderStyle.Render(fmt.Sprintf("%-36s  %-10s  %-19s  %s", "RUN", "STATUS", "STARTED", "HOME")))
	for _, r := range runs {
		fmt.Printf("%-36s  %-10s  %-19s  %s\n",
			r.ID,
			styleRunStatus(r.Status),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.HomePath,
		)
		if r.Error != "" {
			fmt.Printf("    %s\n", statusDimStyle.Render(firstLine(r.Error)))
		}
	}
	return nil
}

func showRun(db *state.DB, id string) error {
	run, err := db.GetRun(id)
	if err != nil {
		return err
	}

	fmt.Printf("Run %s\n", run.ID)
	fmt.Printf("  Home:    %s\n", run.HomePath)
	fmt.Printf("  Status:  %s\n", styleRunStatus(run.Status))
	fmt.Printf("  Started: %s\n", run.StartedAt.Local().Format(time.RFC3339))
	if run.FinishedAt != nil {
		fmt.Printf("  Took:    %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	if run.Error != "" {
		fmt.Printf("  Error:   %s\n", run.Error)
	}

	steps, err := db.ListSteps(id)
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		return nil
	}

	fmt.Println()
	fmt.Println(statusHeaderStyle.Render(fmt.Sprintf("  %-4s %-12s %-30s %s", "SEQ", "KIND", "NAME", "STATUS")))
	for _, s := range steps {
		fmt.Printf("  %-4d %-12s %-30s %s\n", s.Seq, s.Kind, s.Name, styleRunStatus(s.Status))
	}
	return nil
}

func styleRunStatus(status string) string {
	switch status {
	case "succeeded", "done":
		return statusOKStyle.Render(status)
	case "failed":
		return statusFailStyle.Render(status)
	default:
		return statusDimStyle.Render(status)
	}
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
