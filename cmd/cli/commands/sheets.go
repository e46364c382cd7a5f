package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/shift-roster/pkg/core/services"
)

// PublishRosterCmd creates the publishRoster command
func PublishRosterCmd(app *AppContext) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "publishRoster",
		Short: "Write the stored roster to a tab of the roster spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Cfg.RosterSheetID == "" {
				return fmt.Errorf("rosterSheetID is not configured")
			}
			start, end, err := app.defaultRange(start, end)
			if err != nil {
				return err
			}

			sheets, err := app.SheetsClient()
			if err != nil {
				return err
			}

			published, err := services.PublishRoster(app.Ctx, app.Database, sheets, app.Logger, app.Cfg.RosterSheetID, start, end)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Published %d rows for %s to %s\n\n", len(published.Rows), start, end)
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "First day (default today)")
	cmd.Flags().StringVar(&end, "end", "", "Last day (default start + 6 days)")

	return cmd
}

// SyncWorkersCmd creates the syncWorkers command
func SyncWorkersCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "syncWorkers",
		Short: "Copy workers from the worker spreadsheet into the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sheets, err := app.SheetsClient()
			if err != nil {
				return err
			}

			workers, err := services.SyncWorkers(app.Ctx, app.Database, sheets, app.Cfg, app.Logger)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Synced %d workers\n\n", len(workers))
			for _, w := range workers {
				fmt.Printf("  %-10s  %-20s  grade %d  %s\n", w.ID, w.Name, w.Grade, w.Role)
			}
			fmt.Println()
			return nil
		},
	}
}
