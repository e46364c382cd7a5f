package commands

import (
	"github.com/spf13/cobra"

	"github.com/jakechorley/shift-roster/pkg/utils/logging"
)

// NewRootCmd builds the CLI with every command sharing one AppContext
func NewRootCmd() *cobra.Command {
	app := &AppContext{}

	rootCmd := &cobra.Command{
		Use:           "roster",
		Short:         "Shift roster - generate rosters, manage leave and replacements",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.InitApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.Close()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&app.Env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().StringVar(&app.LogDir, "log-dir", logging.DefaultDir, "Directory for log files")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(GenerateRosterCmd(app))
	rootCmd.AddCommand(ApproveRosterCmd(app))
	rootCmd.AddCommand(ApplyLeaveCmd(app))
	rootCmd.AddCommand(ApproveLeaveCmd(app))
	rootCmd.AddCommand(RejectLeaveCmd(app))
	rootCmd.AddCommand(ListPendingLeaveCmd(app))
	rootCmd.AddCommand(LeaveHistoryCmd(app))
	rootCmd.AddCommand(FindReplacementsCmd(app))
	rootCmd.AddCommand(ReplaceShiftCmd(app))
	rootCmd.AddCommand(ViewRosterCmd(app))
	rootCmd.AddCommand(ViewScheduleCmd(app))
	rootCmd.AddCommand(PublishRosterCmd(app))
	rootCmd.AddCommand(SyncWorkersCmd(app))
	rootCmd.AddCommand(MigrateCmd(app))
	rootCmd.AddCommand(ServeCmd(app))
	rootCmd.AddCommand(InteractiveCmd())

	return rootCmd
}
