package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"skipper/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("configuration file already exists at %s", path)
			}
			if err := config.WriteSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote sample configuration to %s\n", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "log file:    %s\n", cfg.LogPath())
			fmt.Fprintf(out, "settings:    %s\n", cfg.SettingsPath())
			fmt.Fprintf(out, "journal:     %s\n", cfg.JournalPath())
			fmt.Fprintf(out, "socket:      %s\n", cfg.Socket())
			fmt.Fprintf(out, "sidecar bin: %s\n", cfg.Sidecar.Binary)
			fmt.Fprintf(out, "launch mode: %s\n", cfg.Sidecar.LaunchMode)
			return nil
		},
	})

	return cmd
}
