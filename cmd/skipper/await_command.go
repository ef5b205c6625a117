package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"skipper/internal/ipc"
)

func newAwaitCommand(ctx *commandContext) *cobra.Command {
	var timeout time.Duration
	var showPassword bool

	cmd := &cobra.Command{
		Use:   "await",
		Short: "Block until initialization finishes and print the server URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.AwaitInit(timeout)
				if err != nil {
					return err
				}
				if !resp.Ready {
					if resp.Err != "" {
						return errors.New(resp.Err)
					}
					return fmt.Errorf("initialization did not finish within %s", timeout)
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.URL)
				if showPassword && resp.Password != "" {
					fmt.Fprintln(cmd.OutOrStdout(), resp.Password)
				}
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "Maximum time to wait")
	cmd.Flags().BoolVar(&showPassword, "show-password", false, "Also print the per-launch password")
	return cmd
}
