package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/charlie0129/appraise/pkg/types"
)

func NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Manage the scheduled stats export",
		GroupID: gAdvanced,
		Long: `Manage the scheduled stats export.

The schedule and target file are set with statsExportSchedule and
statsExportPath in the config file.
  appraise export show    Show the export schedule and the next run
  appraise export skip    Skip the next run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExportShow(cmd)
		},
	}

	cmd.AddCommand(
		newExportShowCommand(),
		newExportSkipCommand(),
	)

	return cmd
}

func newExportShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the stats export schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExportShow(cmd)
		},
	}
}

func newExportSkipCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "skip",
		Short: "Skip the next scheduled stats export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := apiClient.SkipStatsExport()
			if err != nil {
				return err
			}
			cmd.Println("Next scheduled stats export skipped.")
			printNextExport(cmd, st)
			return nil
		},
	}
}

func runExportShow(cmd *cobra.Command) error {
	st, err := apiClient.GetStatsExport()
	if err != nil {
		return err
	}
	if !st.Enabled {
		cmd.Println("Stats export is not scheduled.")
		return nil
	}
	cmd.Printf("Exporting stats to %s on schedule %s\n", st.Path, bold("%s", st.Schedule))
	printNextExport(cmd, st)
	return nil
}

func printNextExport(cmd *cobra.Command, st *types.ExportStatus) {
	if st.NextRun != nil {
		cmd.Printf("Next run: %s\n", st.NextRun.Local().Format(time.DateTime))
	}
}

func NewResetStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "reset-stats",
		Short:   "Reset the daemon's request counters and totals",
		GroupID: gAdvanced,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := apiClient.ResetStats(); err != nil {
				return err
			}
			cmd.Println("Stats reset.")
			return nil
		},
	}
}
