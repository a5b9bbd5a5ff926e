package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var detailCmd = &cobra.Command{
	Use:   "detail <id> [api]",
	Short: "Show the episode list of one item",
	Long:  "Fetches the playlist for an item. Without an api the server's fast source is used.",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runDetail,
}

func init() {
	rootCmd.AddCommand(detailCmd)
}

func runDetail(cmd *cobra.Command, args []string) error {
	api := ""
	if len(args) > 1 {
		api = args[1]
	}

	client := NewClient(serverURL)
	video, err := client.Detail(api, args[0])
	if err != nil {
		return fmt.Errorf("detail failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		printJSON(out, video)
		return nil
	}

	_, _ = fmt.Fprintf(out, "%s [%s]\n", video.Title, video.Category)
	if video.Remarks != "" {
		_, _ = fmt.Fprintf(out, "  %s\n", video.Remarks)
	}
	if video.Description != "" {
		_, _ = fmt.Fprintf(out, "  %s\n", truncate(video.Description, 120))
	}
	_, _ = fmt.Fprintf(out, "\nEpisodes (%d):\n", len(video.Episodes))
	for _, ep := range video.Episodes {
		_, _ = fmt.Fprintf(out, "  %3d  %-12s %s\n", ep.Index, ep.Name, ep.URL)
	}
	if video.Truncated {
		_, _ = fmt.Fprintln(out, "  (list truncated)")
	}
	return nil
}
