package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newStatusCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print provider credentials and data readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.assistant(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(a.Status())
		},
	}
}
