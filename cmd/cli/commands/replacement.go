package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/shift-roster/pkg/core/services"
)

// FindReplacementsCmd creates the findReplacements command
func FindReplacementsCmd(app *AppContext) *cobra.Command {
	var minGrade int

	cmd := &cobra.Command{
		Use:   "findReplacements <date>",
		Short: "Rank the contributors free to cover a shift on a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			candidates, err := services.FindReplacements(app.Ctx, app.Database, app.Logger, args[0], minGrade)
			if err != nil {
				return err
			}

			if len(candidates) == 0 {
				fmt.Printf("\nNo replacement available on %s at grade %d or above\n\n", args[0], minGrade)
				return nil
			}

			fmt.Printf("\n%-4s  %-10s  %-20s  %5s  %11s\n", "Rank", "Worker", "Name", "Grade", "Deployments")
			for i, c := range candidates {
				fmt.Printf("%-4d  %-10s  %-20s  %5d  %11d\n", i+1, c.WorkerID, c.Name, c.Grade, c.DeploymentCount)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().IntVar(&minGrade, "min-grade", 1, "Minimum proficiency grade")
	return cmd
}

// ReplaceShiftCmd creates the replaceShift command
func ReplaceShiftCmd(app *AppContext) *cobra.Command {
	var req services.ReplaceShiftRequest

	cmd := &cobra.Command{
		Use:   "replaceShift",
		Short: "Hand an applicant's shift to a replacement and approve their leave",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			notifier, err := app.Notifier()
			if err != nil {
				return err
			}

			result, err := services.ReplaceShift(app.Ctx, app.Database, notifier, app.Logger, req)
			if result != nil {
				fmt.Println()
				for _, step := range result.Steps {
					fmt.Printf("  %-22s %-8s %s\n", step.Step, step.Status, step.Detail)
				}
				fmt.Println()
			}
			if err != nil {
				var stepErr *services.ReplacementStepError
				if errors.As(err, &stepErr) && len(stepErr.Completed) > 0 {
					fmt.Printf("⚠ Steps already applied and not undone: %v\n\n", stepErr.Completed)
				}
				return err
			}

			fmt.Printf("✓ %s now covers %s %s at %s\n\n", result.Replacement.Name, result.Assignment.Date, result.Assignment.Shift, result.Assignment.Location)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.LeaveID, "leave", "", "Leave application ID")
	cmd.Flags().StringVar(&req.ApplicantID, "applicant", "", "Worker going on leave")
	cmd.Flags().StringVar(&req.ReplacementID, "replacement", "", "Worker taking the shift")
	cmd.Flags().StringVar(&req.Date, "date", "", "Date of the shift (YYYY-MM-DD)")
	for _, name := range []string{"leave", "applicant", "replacement", "date"} {
		cmd.MarkFlagRequired(name)
	}

	return cmd
}
