package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	adminKey    string
	statsWindow int
	exportPath  string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show visit statistics",
	RunE:  runStats,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download the visit log as CSV",
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)
	for _, c := range []*cobra.Command{statsCmd, exportCmd} {
		c.Flags().StringVarP(&adminKey, "key", "k", os.Getenv("VODGATE_ADMIN_SECRET"), "Admin secret (default $VODGATE_ADMIN_SECRET)")
	}
	statsCmd.Flags().IntVarP(&statsWindow, "window", "w", 0, "Days to include (server default when 0)")
	exportCmd.Flags().StringVarP(&exportPath, "output", "o", "", "Output file (default traffic_data_YYYYMMDD.csv)")
}

func runStats(cmd *cobra.Command, args []string) error {
	if adminKey == "" {
		return fmt.Errorf("admin key required (--key or VODGATE_ADMIN_SECRET)")
	}

	client := NewClient(serverURL)
	sum, err := client.Stats(adminKey, statsWindow)
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		printJSON(out, sum)
		return nil
	}

	_, _ = fmt.Fprintf(out, "Total:  %d views, %d visitors\n", sum.TotalPV, sum.TotalUV)
	_, _ = fmt.Fprintf(out, "Today:  %d views, %d visitors\n\n", sum.TodayPV, sum.TodayUV)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "DAY\tPV\tUV")
	for _, d := range sum.Daily {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%d\n", d.Day, d.PV, d.UV)
	}
	_ = tw.Flush()

	if len(sum.Categories) > 0 {
		_, _ = fmt.Fprintln(out)
		tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "CATEGORY\tVISITS")
		for _, c := range sum.Categories {
			_, _ = fmt.Fprintf(tw, "%s\t%d\n", c.Category, c.N)
		}
		_ = tw.Flush()
	}

	if len(sum.TopLocations) > 0 {
		_, _ = fmt.Fprintln(out)
		tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "LOCATION\tVISITS")
		for _, l := range sum.TopLocations {
			_, _ = fmt.Fprintf(tw, "%s\t%d\n", l.Key, l.N)
		}
		_ = tw.Flush()
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	if adminKey == "" {
		return fmt.Errorf("admin key required (--key or VODGATE_ADMIN_SECRET)")
	}

	path := exportPath
	if path == "" {
		path = "traffic_data_" + time.Now().Format("20060102") + ".csv"
	}

	out := cmd.OutOrStdout()
	if path == "-" {
		_, err := NewClient(serverURL).Export(adminKey, out)
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	n, err := NewClient(serverURL).Export(adminKey, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("export failed: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Wrote %d bytes to %s\n", n, path)
	return nil
}
