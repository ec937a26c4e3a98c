package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	verbose bool
	noColor bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "noteauth",
		Short: "Two-factor sign-in for the notes app",
		Long: `noteauth signs you in with your account, a code from your authenticator
app and, on a new device, your explicit approval. The resulting session
unlocks the notes stored on this device.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(*cobra.Command, []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "write debug logs to stderr")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(
		newLoginCmd(opts),
		newDevicesCmd(opts),
		newLogoutCmd(opts),
		newKeygenCmd(),
	)
	return cmd
}
