package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/noteauth/pkg/device"
)

func newDevicesCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "Manage the devices allowed to open your notes",
	}
	cmd.AddCommand(newDevicesListCmd(root), newDevicesRemoveCmd(root))
	return cmd
}

func newDevicesListCmd(root *rootOptions) *cobra.Command {
	opts := &loginOptions{}
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered devices",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, root, func(ctx context.Context, a *app) error {
				f, err := authenticate(ctx, cmd, a, opts)
				if err != nil {
					return err
				}
				userID, err := f.PartitionID()
				if err != nil {
					return err
				}
				devices, err := a.registry.ListDevices(ctx, userID)
				if err != nil {
					return a.userError(ctx, err)
				}
				renderDevices(cmd.OutOrStdout(), devices, time.Now())
				return nil
			})
		},
	}
}

func newDevicesRemoveCmd(root *rootOptions) *cobra.Command {
	opts := &loginOptions{}
	return &cobra.Command{
		Use:     "remove DEVICE_ID",
		Aliases: []string{"rm"},
		Short:   "Revoke a device",
		Long: `Revoke a device. It will have to be approved again, after a code from
your authenticator app, before it can open your notes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, func(ctx context.Context, a *app) error {
				f, err := authenticate(ctx, cmd, a, opts)
				if err != nil {
					return err
				}
				userID, err := f.PartitionID()
				if err != nil {
					return err
				}
				removed, err := a.registry.RemoveDevice(ctx, userID, args[0])
				if err != nil {
					return a.userError(ctx, err)
				}
				if !removed {
					return fmt.Errorf("no device with id %s", args[0])
				}
				newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()).success("Device %s removed", args[0])
				return nil
			})
		},
	}
}

func renderDevices(w io.Writer, devices []device.Info, now time.Time) {
	if len(devices) == 0 {
		fmt.Fprintln(w, "No devices registered")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Name", "Registered", "Last used", ""})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(true)

	current := color.New(color.FgGreen, color.Bold).SprintFunc()
	for _, d := range devices {
		marker := ""
		if d.IsCurrent {
			marker = current("this device")
		}
		table.Append([]string{
			d.ID,
			d.DisplayName,
			d.RegisteredAt.Local().Format(time.DateOnly),
			ago(now, d.LastUsedAt),
			marker,
		})
	}
	table.Render()
}

func ago(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d min ago", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%d h ago", int(d.Hours()))
	}
	return fmt.Sprintf("%d days ago", int(d.Hours()/24))
}
