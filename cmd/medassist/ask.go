package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/medicare-ai/medassist/orchestrator"
)

func newAskCmd(root *rootOptions) *cobra.Command {
	var sessionID, userID string
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one question through the chat orchestrator",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.assistant(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			reply, err := a.Orchestrator.Handle(cmd.Context(), orchestrator.Request{
				UserID:    userID,
				SessionID: sessionID,
				Messages:  []orchestrator.Message{{Role: orchestrator.RoleUser, Content: strings.Join(args, " ")}},
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply.Content)
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id to continue")
	cmd.Flags().StringVar(&userID, "user", "cli", "user id recorded in the history")
	return cmd
}
