package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the server is reachable",
	RunE:  runPing,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server health",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(statusCmd)
}

func runPing(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	resp, err := client.Heartbeat()
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	if jsonOutput {
		printJSON(cmd.OutOrStdout(), resp)
		return nil
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", serverURL, resp.Status)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	health, err := client.Health()
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		printJSON(out, health)
		return nil
	}
	_, _ = fmt.Fprintf(out, "Server:   %s (%s)\n", serverURL, health.Status)
	_, _ = fmt.Fprintf(out, "Version:  %s\n", health.Version)
	_, _ = fmt.Fprintf(out, "Sources:  %d\n", health.Sources)
	return nil
}
