package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sir_venger/upload_lite/internal/models"
)

func newListCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued and uploaded files",
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := newClient().ListFiles(cmd.Context(), models.Status(status))
			if err != nil {
				return fmt.Errorf("failed to list files: %w", err)
			}
			if len(files) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No files found")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tPROGRESS")
			for _, f := range files {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d%%\n", f.ID, f.Name, f.Status, f.Percent)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status (queued, uploading, done, failed)")

	return cmd
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Mark the upload as started",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newClient().Start(cmd.Context())
		},
	}
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Mark the upload as stopped",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newClient().Stop(cmd.Context())
		},
	}
}

func newStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the upload manager state",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := newClient().Manager(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "phase: %s  start: %t  stop: %t\n", st.Phase, st.StartEnabled, st.StopEnabled)
			for _, it := range st.Items {
				fmt.Fprintf(out, "  %-30s %3d%%\n", it.Label, it.Percent)
			}
			return nil
		},
	}
}
