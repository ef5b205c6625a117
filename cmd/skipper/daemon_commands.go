package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"skipper/internal/ipc"
)

func newKillCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "kill-sidecar",
		Short: "Terminate the spawned sidecar process",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.KillSidecar()
				if err != nil {
					return err
				}
				if resp.Killed {
					fmt.Fprintln(cmd.OutOrStdout(), "sidecar kill requested")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "no spawned sidecar to kill")
				}
				return nil
			})
		},
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Shut down the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.Stop(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "daemon stopping")
				return nil
			})
		},
	}
}
