package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	var window int
	trendsCmd := &cobra.Command{
		Use:   "trends KIND",
		Short: "Show the rolling-window summary for a metric",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			path := fmt.Sprintf("/api/users/%s/trends/%s?windowDays=%d", userFlag, args[0], window)
			data, err := doGet(path)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	trendsCmd.Flags().IntVarP(&window, "window", "w", 7, "Window size in days")
	rootCmd.AddCommand(trendsCmd)

	alertsCmd := &cobra.Command{
		Use:   "alerts",
		Short: "Check the latest readings against alert thresholds",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			data, err := doGet("/api/users/" + userFlag + "/alerts")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	rootCmd.AddCommand(alertsCmd)
}
