package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	var category, duration, notes string
	var severity int

	consultCmd := &cobra.Command{
		Use:   "consult QUESTION",
		Short: "Ask the assistant a health question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			payload := map[string]interface{}{
				"userId":   userFlag,
				"question": args[0],
			}
			if category != "" {
				payload["category"] = category
			}
			sctx := map[string]interface{}{}
			if duration != "" {
				sctx["duration"] = duration
			}
			if severity > 0 {
				sctx["severity"] = severity
			}
			if notes != "" {
				sctx["notes"] = notes
			}
			if len(sctx) > 0 {
				payload["context"] = sctx
			}
			data, err := doPostJSON("/api/consultations", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	consultCmd.Flags().StringVarP(&category, "category", "c", "", "general, symptom_analysis, emergency or preventive")
	consultCmd.Flags().StringVar(&duration, "duration", "", "How long the symptoms have lasted")
	consultCmd.Flags().IntVarP(&severity, "severity", "s", 0, "Severity 1-10")
	consultCmd.Flags().StringVar(&notes, "notes", "", "Extra context notes")
	rootCmd.AddCommand(consultCmd)

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "List configured models and their availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet("/api/models")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	rootCmd.AddCommand(modelsCmd)
}
