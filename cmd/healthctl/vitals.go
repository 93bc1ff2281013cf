package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	vitalsCmd := &cobra.Command{Use: "vitals", Short: "Vital-reading operations"}

	var unit, note string
	addCmd := &cobra.Command{
		Use:   "add KIND VALUE",
		Short: "Record a vital reading",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			var value float64
			if _, err := fmt.Sscanf(args[1], "%g", &value); err != nil {
				return fmt.Errorf("value must be a number: %v", err)
			}
			payload := map[string]interface{}{"kind": args[0], "value": value}
			if unit != "" {
				payload["unit"] = unit
			}
			if note != "" {
				payload["note"] = note
			}
			data, err := doPostJSON("/api/users/"+userFlag+"/vitals", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	addCmd.Flags().StringVar(&unit, "unit", "", "Unit (defaults per kind)")
	addCmd.Flags().StringVar(&note, "note", "", "Free-form note")
	vitalsCmd.AddCommand(addCmd)

	var kind string
	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List vital readings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			path := "/api/users/" + userFlag + "/vitals"
			sep := "?"
			if kind != "" {
				path += sep + "kind=" + kind
				sep = "&"
			}
			if limit > 0 {
				path += fmt.Sprintf("%slimit=%d", sep, limit)
			}
			data, err := doGet(path)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	listCmd.Flags().StringVarP(&kind, "kind", "k", "", "Metric kind filter")
	listCmd.Flags().IntVarP(&limit, "limit", "l", 0, "Max rows")
	vitalsCmd.AddCommand(listCmd)

	rootCmd.AddCommand(vitalsCmd)
}

func init() {
	symptomsCmd := &cobra.Command{Use: "symptoms", Short: "Symptom-log operations"}

	var severity int
	var note string
	addCmd := &cobra.Command{
		Use:   "add SYMPTOM",
		Short: "Record a symptom",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			payload := map[string]interface{}{"symptom": args[0], "severity": severity}
			if note != "" {
				payload["note"] = note
			}
			data, err := doPostJSON("/api/users/"+userFlag+"/symptoms", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	addCmd.Flags().IntVarP(&severity, "severity", "s", 5, "Severity 1-10")
	addCmd.Flags().StringVar(&note, "note", "", "Free-form note")
	symptomsCmd.AddCommand(addCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List symptom entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			data, err := doGet("/api/users/" + userFlag + "/symptoms")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	symptomsCmd.AddCommand(listCmd)

	rootCmd.AddCommand(symptomsCmd)
}

func init() {
	medsCmd := &cobra.Command{Use: "meds", Short: "Medication operations"}

	var dosage, frequency string
	addCmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Record a medication course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			payload := map[string]interface{}{"name": args[0], "dosage": dosage, "frequency": frequency}
			data, err := doPostJSON("/api/users/"+userFlag+"/medications", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	addCmd.Flags().StringVarP(&dosage, "dosage", "d", "", "Dosage, e.g. 500mg")
	addCmd.Flags().StringVarP(&frequency, "frequency", "f", "", "Frequency, e.g. twice daily")
	medsCmd.AddCommand(addCmd)

	var activeOnly bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List medications",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			path := "/api/users/" + userFlag + "/medications"
			if activeOnly {
				path += "?active=true"
			}
			data, err := doGet(path)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	listCmd.Flags().BoolVar(&activeOnly, "active", false, "Only courses still running")
	medsCmd.AddCommand(listCmd)

	stopCmd := &cobra.Command{
		Use:   "stop MEDICATION_ID",
		Short: "Discontinue a medication course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			data, err := doPostJSON("/api/users/"+userFlag+"/medications/"+args[0]+"/discontinue", map[string]interface{}{})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	medsCmd.AddCommand(stopCmd)

	rootCmd.AddCommand(medsCmd)
}
