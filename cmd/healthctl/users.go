package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	usersCmd := &cobra.Command{Use: "users", Short: "Profile operations"}

	var age int
	var sex, conditions string
	createCmd := &cobra.Command{
		Use:   "create USER_ID",
		Short: "Create a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{"userId": args[0]}
			if cmd.Flags().Changed("age") {
				payload["age"] = age
			}
			if sex != "" {
				payload["sex"] = sex
			}
			if conditions != "" {
				payload["conditions"] = splitCSV(conditions)
			}
			data, err := doPostJSON("/api/users", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	createCmd.Flags().IntVar(&age, "age", 0, "Age in years")
	createCmd.Flags().StringVar(&sex, "sex", "", "Sex")
	createCmd.Flags().StringVar(&conditions, "conditions", "", "Comma-separated known conditions")
	usersCmd.AddCommand(createCmd)

	getCmd := &cobra.Command{
		Use:   "get USER_ID",
		Short: "Get a profile by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet("/api/users/" + args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	usersCmd.AddCommand(getCmd)

	exportCmd := &cobra.Command{
		Use:   "export USER_ID",
		Short: "Export everything stored for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet("/api/users/" + args[0] + "/export")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	usersCmd.AddCommand(exportCmd)

	rootCmd.AddCommand(usersCmd)
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
