package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	searchMode   string
	searchSource string
	searchLimit  int
)

var searchCmd = &cobra.Command{
	Use:   "search <keyword...>",
	Short: "Search the aggregator sources",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured sources",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(sourcesCmd)
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", "fast", "Search mode (fast, all)")
	searchCmd.Flags().StringVarP(&searchSource, "source", "s", "", "Source API to query in fast mode")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "Maximum results to print (0 for all)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	keyword := strings.Join(args, " ")
	client := NewClient(serverURL)
	resp, err := client.Search(keyword, searchMode, searchSource)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		printJSON(out, resp)
		return nil
	}

	cached := ""
	if resp.Cached {
		cached = ", cached"
	}
	_, _ = fmt.Fprintf(out, "%d results for %q (%d sources, %d failed%s)\n\n",
		resp.Total, resp.Keyword, resp.Sources, resp.Failed, cached)
	if len(resp.Items) == 0 {
		return nil
	}

	items := resp.Items
	if searchLimit > 0 && len(items) > searchLimit {
		items = items[:searchLimit]
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tTITLE\tNOTE\tSOURCE\tSCORE")
	for _, it := range items {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\n",
			it.ID, truncate(it.Title, 40), truncate(it.Note, 20), it.SourceName, it.Relevance)
	}
	_ = tw.Flush()
	if len(items) < len(resp.Items) {
		_, _ = fmt.Fprintf(out, "\n... %d more (use --limit 0 to show all)\n", len(resp.Items)-len(items))
	}
	return nil
}

func runSources(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	resp, err := client.Sources()
	if err != nil {
		return fmt.Errorf("list sources failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		printJSON(out, resp)
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tSPEED\tAPI")
	for _, src := range resp.Sources {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", src.Name, src.Speed, src.API)
	}
	_ = tw.Flush()
	_, _ = fmt.Fprintf(out, "\n%d sources\n", resp.Total)
	return nil
}
