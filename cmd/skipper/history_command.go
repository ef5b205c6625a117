package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"skipper/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sidecar launch attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.History(limit)
				if err != nil {
					return err
				}
				if len(resp.Entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no launch attempts recorded")
					return nil
				}

				rows := make([][]string, 0, len(resp.Entries))
				for _, entry := range resp.Entries {
					rows = append(rows, []string{
						entry.StartedAt.Local().Format(time.DateTime),
						entry.Strategy,
						entry.Outcome,
						entry.URL,
						entry.Detail,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(),
					renderTable([]string{"Started", "Strategy", "Outcome", "URL", "Detail"}, rows))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of attempts to show")
	return cmd
}
