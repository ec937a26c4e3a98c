package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/noteauth/pkg/config"
	"github.com/dmitrymomot/noteauth/pkg/totp"
)

type keygenOptions struct {
	issuer string
	qrPath string
}

func newKeygenCmd() *cobra.Command {
	opts := &keygenOptions{}

	cmd := &cobra.Command{
		Use:   "keygen ACCOUNT",
		Short: "Print a fresh TOTP secret",
		Long: `Print a fresh TOTP secret and its setup link without storing anything.
Useful to prepare an authenticator entry ahead of enrollment.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg totp.Config
			if err := config.Load(&cfg); err != nil {
				return err
			}
			if opts.issuer != "" {
				cfg.Issuer = opts.issuer
			}

			secret, err := totp.GenerateSecret(cfg.Issuer, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Secret key: %s\n", secret.Base32)
			fmt.Fprintf(out, "Setup link: %s\n", secret.URI)

			if opts.qrPath != "" {
				png, err := totp.ProvisioningImage(secret, cfg.ImageSize)
				if err != nil {
					return err
				}
				if err := os.WriteFile(opts.qrPath, png, 0o600); err != nil {
					return fmt.Errorf("writing barcode: %w", err)
				}
				fmt.Fprintf(out, "Barcode:    %s\n", opts.qrPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.issuer, "issuer", "", "issuer shown in the authenticator app (default $TOTP_ISSUER)")
	cmd.Flags().StringVar(&opts.qrPath, "qr", "", "write the barcode as PNG to this file")
	return cmd
}
