package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newLogoutCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Long:  "End the current session. The next login asks for a code again.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, root, func(ctx context.Context, a *app) error {
				if err := a.sessions.ClearSession(ctx); err != nil {
					return a.userError(ctx, err)
				}
				newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()).success("Signed out")
				return nil
			})
		},
	}
}
