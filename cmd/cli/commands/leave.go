package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-roster/pkg/core/services"
)

// ApplyLeaveCmd creates the applyLeave command
func ApplyLeaveCmd(app *AppContext) *cobra.Command {
	var req services.ApplyLeaveRequest

	cmd := &cobra.Command{
		Use:   "applyLeave",
		Short: "Submit a leave application for a worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Logger.Debug("applyLeave command", zap.String("worker_id", req.WorkerID))

			result, err := services.ApplyLeave(app.Ctx, app.Database, app.Logger, app.Cfg.Quota(), req)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Leave application submitted\n\n")
			fmt.Printf("Leave ID: %s\n", result.Leave.ID)
			fmt.Printf("Worker:   %s\n", result.Leave.WorkerID)
			fmt.Printf("Dates:    %s to %s\n", result.Leave.StartDate, result.Leave.EndDate)
			fmt.Printf("Category: %s\n", result.Leave.Category)
			if result.Warning != "" {
				fmt.Printf("\n⚠ %s\n", result.Warning)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&req.WorkerID, "worker", "", "Worker ID")
	cmd.Flags().StringVar(&req.StartDate, "start", "", "First day of leave (YYYY-MM-DD)")
	cmd.Flags().StringVar(&req.EndDate, "end", "", "Last day of leave (YYYY-MM-DD)")
	cmd.Flags().StringVar(&req.Category, "category", "Block", "Leave category: Block or Advance")
	cmd.Flags().StringVar(&req.Subcategory, "subcategory", "", "Subcategory (required for Advance)")
	cmd.Flags().StringVar(&req.Remarks, "remarks", "", "Free text remarks")
	cmd.MarkFlagRequired("worker")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")

	return cmd
}

// ApproveLeaveCmd creates the approveLeave command
func ApproveLeaveCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "approveLeave <leave_id>",
		Short: "Approve a pending leave application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := services.ApproveLeave(app.Ctx, app.Database, app.Logger, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Leave approved for %s (%d days)\n", result.WorkerID, len(result.Days))
			for _, day := range result.Days {
				fmt.Printf("  %s  %s\n", day.Date, day.Category)
			}
			fmt.Println()
			return nil
		},
	}
}

// RejectLeaveCmd creates the rejectLeave command
func RejectLeaveCmd(app *AppContext) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "rejectLeave <leave_id>",
		Short: "Reject a pending leave application with a reason",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rejected, err := services.RejectLeave(app.Ctx, app.Database, app.Logger, args[0], reason)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Leave %s to %s for %s rejected: %s\n\n", rejected.StartDate, rejected.EndDate, rejected.WorkerID, rejected.RejectionReason)
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Reason given to the worker")
	cmd.MarkFlagRequired("reason")

	return cmd
}

// ListPendingLeaveCmd creates the listPendingLeave command
func ListPendingLeaveCmd(app *AppContext) *cobra.Command {
	var workerID string

	cmd := &cobra.Command{
		Use:   "listPendingLeave",
		Short: "List leave applications awaiting a decision, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pending, err := services.ListPendingLeave(app.Ctx, app.Database, app.Logger, workerID)
			if err != nil {
				return err
			}

			if len(pending) == 0 {
				fmt.Println("\nNo pending leave applications")
				return nil
			}

			fmt.Printf("\n%-36s  %-10s  %-10s  %-10s  %-8s  %s\n", "ID", "Worker", "Start", "End", "Category", "Remarks")
			for _, p := range pending {
				fmt.Printf("%-36s  %-10s  %-10s  %-10s  %-8s  %s\n", p.ID, p.WorkerID, p.StartDate, p.EndDate, p.Category, p.Remarks)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&workerID, "worker", "", "Only show this worker's applications")
	return cmd
}

// LeaveHistoryCmd creates the leaveHistory command
func LeaveHistoryCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "leaveHistory <worker_id>",
		Short: "Show a worker's pending, approved and rejected leave",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := services.GetLeaveHistory(app.Ctx, app.Database, app.Logger, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("\nLeave history for %s\n", history.WorkerID)

			fmt.Printf("\nPending (%d)\n", len(history.Pending))
			for _, p := range history.Pending {
				fmt.Printf("  %s to %s  %s\n", p.StartDate, p.EndDate, p.Category)
			}
			fmt.Printf("\nApproved days (%d)\n", len(history.Approved))
			for _, a := range history.Approved {
				fmt.Printf("  %s  %s\n", a.Date, a.Category)
			}
			fmt.Printf("\nRejected (%d)\n", len(history.Rejected))
			for _, r := range history.Rejected {
				fmt.Printf("  %s to %s  %s (%s)\n", r.StartDate, r.EndDate, r.Category, r.RejectionReason)
			}
			fmt.Println()
			return nil
		},
	}
}
