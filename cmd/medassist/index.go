package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIndexCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Embed the medicine dataset into the configured vector store",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.assistant(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Index(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d records\n", n)
			return nil
		},
	}
}
