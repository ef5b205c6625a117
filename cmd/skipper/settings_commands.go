package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"skipper/internal/ipc"
)

func newServerURLCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server-url",
		Short: "Show or change the custom server URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ServerURL()
				if err != nil {
					return err
				}
				if !resp.Set {
					fmt.Fprintln(cmd.OutOrStdout(), "no custom server URL configured")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.URL)
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <url>",
		Short: "Persist a custom server URL for the next initialization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.SetServerURL(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "server URL set to %s\n", args[0])
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the custom server URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.SetServerURL(""); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "server URL cleared")
				return nil
			})
		},
	})

	return cmd
}

func newWSLCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wsl",
		Short: "Show or change the WSL launch toggle",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.WSL()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "WSL launch enabled: %s\n", yesNo(resp.Enabled))
				return nil
			})
		},
	}

	for _, sub := range []struct {
		use     string
		short   string
		enabled bool
	}{
		{"enable", "Launch the sidecar through WSL", true},
		{"disable", "Launch the sidecar natively", false},
	} {
		enabled := sub.enabled
		cmd.AddCommand(&cobra.Command{
			Use:   sub.use,
			Short: sub.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				return ctx.withClient(func(client *ipc.Client) error {
					if _, err := client.SetWSL(enabled); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "WSL launch enabled: %s\n", yesNo(enabled))
					return nil
				})
			},
		})
	}

	return cmd
}

func newDisplayCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "display",
		Short: "Show the windowing backend decision for this session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Display()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if resp.Backend == "" {
					fmt.Fprintln(out, "backend: toolkit default")
				} else {
					fmt.Fprintf(out, "backend: %s (%s)\n", resp.Backend, resp.Note)
				}
				fmt.Fprintf(out, "decorations: %s\n", yesNo(resp.Decorations))
				fmt.Fprintf(out, "prefer wayland: %s\n", yesNo(resp.PreferWayland))
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:       "prefer-wayland <on|off>",
		Short:     "Persist the native Wayland preference",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			prefer := args[0] == "on"
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.SetDisplay(prefer); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "prefer wayland: %s\n", yesNo(prefer))
				return nil
			})
		},
	})

	return cmd
}
