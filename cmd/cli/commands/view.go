package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jakechorley/shift-roster/pkg/core/model"
	"github.com/jakechorley/shift-roster/pkg/core/services"
)

// ViewRosterCmd creates the viewRoster command
func ViewRosterCmd(app *AppContext) *cobra.Command {
	var start, end, workerID, role string

	cmd := &cobra.Command{
		Use:   "viewRoster",
		Short: "Show the roster as a planner or a contributor sees it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := app.defaultRange(start, end)
			if err != nil {
				return err
			}

			view, err := services.ViewRoster(app.Ctx, app.Database, app.Logger, model.Caller{WorkerID: workerID, Role: model.Role(role)}, start, end)
			if err != nil {
				return err
			}

			fmt.Printf("\nRoster %s to %s\n\n", start, end)
			if view.Planner != nil {
				printRoster(view.Planner.Assignments)
				printLeave(view.Planner.ApprovedLeave)
				return nil
			}
			printSchedule(view.Schedule)
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "First day (default today)")
	cmd.Flags().StringVar(&end, "end", "", "Last day (default start + 6 days)")
	cmd.Flags().StringVar(&workerID, "worker", "", "Caller's worker ID")
	cmd.Flags().StringVar(&role, "role", string(model.RolePlanner), "Caller's role: Planner or Contributor")

	return cmd
}

// ViewScheduleCmd creates the viewSchedule command
func ViewScheduleCmd(app *AppContext) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "viewSchedule <worker_id>",
		Short: "Show one worker's shifts and leave day by day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := app.defaultRange(start, end)
			if err != nil {
				return err
			}

			schedule, err := services.ViewForWorker(app.Ctx, app.Database, app.Logger, args[0], start, end)
			if err != nil {
				return err
			}

			fmt.Printf("\nSchedule for %s, %s to %s\n\n", args[0], start, end)
			printSchedule(schedule)
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "First day (default today)")
	cmd.Flags().StringVar(&end, "end", "", "Last day (default start + 6 days)")

	return cmd
}

func printSchedule(schedule map[string]string) {
	if len(schedule) == 0 {
		fmt.Println("Nothing scheduled")
		fmt.Println()
		return
	}
	days := make([]string, 0, len(schedule))
	for day := range schedule {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		fmt.Printf("  %s  %s\n", day, schedule[day])
	}
	fmt.Println()
}

func printLeave(leave map[string]map[string]services.LeaveDay) {
	if len(leave) == 0 {
		return
	}
	days := make([]string, 0, len(leave))
	for day := range leave {
		days = append(days, day)
	}
	sort.Strings(days)

	fmt.Println("On leave:")
	for _, day := range days {
		workers := make([]string, 0, len(leave[day]))
		for id := range leave[day] {
			workers = append(workers, id)
		}
		sort.Strings(workers)
		for _, id := range workers {
			fmt.Printf("  %s  %-10s %s\n", day, id, leave[day][id].Category)
		}
	}
	fmt.Println()
}
