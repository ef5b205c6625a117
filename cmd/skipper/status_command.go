package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"skipper/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and initialization status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				running := statusError
				runningMsg := "stopped"
				if status.Running {
					running = statusOK
					runningMsg = fmt.Sprintf("pid %d", status.PID)
				}
				fmt.Fprintln(out, renderStatusLine("daemon", running, runningMsg, colorize))

				switch {
				case status.Err != "":
					fmt.Fprintln(out, renderStatusLine("init", statusError, status.Err, colorize))
				case status.Initialized:
					fmt.Fprintln(out, renderStatusLine("init", statusOK, "ready at "+status.ServerURL, colorize))
				default:
					fmt.Fprintln(out, renderStatusLine("init", statusWarn, status.Step, colorize))
				}

				fmt.Fprintln(out, renderStatusLine("log file", statusInfo, status.LogPath, colorize))
				if status.JournalPath != "" {
					fmt.Fprintln(out, renderStatusLine("journal", statusInfo, status.JournalPath, colorize))
				}
				fmt.Fprintln(out, renderStatusLine("lock", statusInfo, status.LockPath, colorize))
				return nil
			})
		},
	}
}
