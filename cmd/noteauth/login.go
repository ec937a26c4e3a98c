package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/noteauth/pkg/authflow"
	"github.com/dmitrymomot/noteauth/pkg/logger"
)

var errLoginCancelled = errors.New("sign-in cancelled")

type loginOptions struct {
	qrPath string
}

func newLoginCmd(root *rootOptions) *cobra.Command {
	opts := &loginOptions{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in on this device",
		Long: `Sign in with your account and a code from your authenticator app.
On first use a new secret is enrolled; on a new device you are asked to
approve it before your notes are unlocked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, root, func(ctx context.Context, a *app) error {
				f, err := authenticate(ctx, cmd, a, opts)
				if err != nil {
					return err
				}
				id, _ := f.PartitionID()
				newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()).success("Signed in as %s (%s)", f.Identity().Email, id[:12])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.qrPath, "qr", "", "write the enrollment barcode as PNG to this file")
	return cmd
}

// withApp opens the services for the duration of fn.
func withApp(cmd *cobra.Command, root *rootOptions, fn func(context.Context, *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx, root)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.WithoutCancel(ctx)); err != nil {
			a.log.WarnContext(ctx, "closing storage", logger.Error(err))
		}
	}()
	return fn(ctx, a)
}

// authenticate drives a flow to AUTHENTICATED, prompting as needed. A valid
// session skips the code prompt.
func authenticate(ctx context.Context, cmd *cobra.Command, a *app, opts *loginOptions) (*authflow.Flow, error) {
	p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	f := a.orch.Begin()

	attempt := uuid.NewString()
	ctx = context.WithValue(ctx, attemptIDKey{}, attempt)

	code := ""
	url, err := a.provider.AuthURL(attempt)
	if err != nil {
		return nil, err
	}
	if url != "" {
		p.info("Open this link to sign in:\n\n  %s\n", url)
		if code, err = p.ask("Authorization code:"); err != nil {
			return nil, err
		}
	}
	if err := f.SignInWithProvider(ctx, a.provider, code); err != nil {
		return nil, a.userError(ctx, err)
	}
	if notice := f.Notice(); notice != nil {
		p.warn("%s", authflow.UserMessage(notice))
	}

	for {
		var err error
		switch f.State() {
		case authflow.StateAuthenticated:
			return f, nil
		case authflow.StateMigration:
			err = stepMigration(ctx, p, f)
		case authflow.StateTOTPSetup:
			err = stepSetup(ctx, p, f, opts)
		case authflow.StateTOTPVerify:
			err = stepVerify(ctx, p, f)
		case authflow.StateDeviceRegistration:
			err = stepDevice(ctx, p, f)
		default:
			err = authflow.ErrInvalidState
		}

		switch {
		case err == nil:
		case errors.Is(err, authflow.ErrInvalidCode), errors.Is(err, authflow.ErrInvalidSecret):
			p.warn("%s", authflow.UserMessage(err))
		case errors.Is(err, errInputClosed), errors.Is(err, errLoginCancelled):
			_ = f.Cancel(ctx)
			return nil, err
		default:
			_ = f.Cancel(ctx)
			return nil, a.userError(ctx, err)
		}
	}
}

func stepMigration(ctx context.Context, p *prompter, f *authflow.Flow) error {
	p.warn("This device has two-factor data from an older version. It will be removed.")
	existing, err := p.confirm("Do you want to keep using your current authenticator entry?")
	if err != nil {
		return err
	}
	if !existing {
		return f.StartNewSecret(ctx)
	}
	secret, err := p.ask("Secret key (as shown when you first enrolled):")
	if err != nil {
		return err
	}
	return f.UseExistingSecret(ctx, secret)
}

func stepSetup(ctx context.Context, p *prompter, f *authflow.Flow, opts *loginOptions) error {
	secret, err := f.Provisioning()
	if err != nil {
		return err
	}
	p.info("Add this account to your authenticator app.")
	p.info("  Secret key: %s", groupSecret(secret.Base32))
	p.info("  Setup link: %s", secret.URI)
	if opts.qrPath != "" {
		png, err := f.ProvisioningImage()
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.qrPath, png, 0o600); err != nil {
			return fmt.Errorf("writing barcode: %w", err)
		}
		p.info("  Barcode:    %s", opts.qrPath)
	}

	code, err := p.ask("Enter the 6-digit code from the app:")
	if err != nil {
		return err
	}
	return f.ConfirmSetup(ctx, normalizeCode(code))
}

func stepVerify(ctx context.Context, p *prompter, f *authflow.Flow) error {
	code, err := p.ask("Enter the 6-digit code from your authenticator app:")
	if err != nil {
		return err
	}
	return f.Verify(ctx, normalizeCode(code))
}

func stepDevice(ctx context.Context, p *prompter, f *authflow.Flow) error {
	p.warn("This device is not registered yet: %s", f.DeviceName())
	ok, err := p.confirm("Allow this device to open your notes?")
	if err != nil {
		return err
	}
	if ok {
		return f.ConfirmDevice(ctx)
	}
	if err := f.CancelDevice(ctx); err != nil {
		return err
	}
	return errLoginCancelled
}

// userError logs the detail and returns text fit for the terminal.
func (a *app) userError(ctx context.Context, err error) error {
	a.log.DebugContext(ctx, "sign-in failed", logger.Error(err))
	return errors.New(authflow.UserMessage(err))
}

// groupSecret splits a base32 secret into blocks of four for reading aloud.
func groupSecret(s string) string {
	out := make([]byte, 0, len(s)+len(s)/4)
	for i := 0; i < len(s); i++ {
		if i > 0 && i%4 == 0 {
			out = append(out, ' ')
		}
		out = append(out, s[i])
	}
	return string(out)
}
