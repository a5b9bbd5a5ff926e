package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vmunix/vodgate/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configTestCmd = &cobra.Command{
	Use:   "test [path]",
	Short: "Validate configuration file",
	Long:  "Validates config.toml syntax, required fields, and environment variable substitution without starting the server.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigTest,
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configTestCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "Overwrite an existing file")
}

func runConfigTest(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	var path string
	if len(args) > 0 {
		path = args[0]
	} else {
		found, err := config.Discover()
		if err != nil {
			return err
		}
		path = found
	}

	_, _ = fmt.Fprintf(out, "Validating %s...\n\n", path)

	cfg, err := config.Load(path)
	if err != nil {
		var configErr *config.ConfigError
		if errors.As(err, &configErr) {
			printConfigErrors(out, configErr)
			return fmt.Errorf("configuration invalid")
		}
		return fmt.Errorf("failed to load config: %w", err)
	}

	for _, w := range cfg.Validate() {
		_, _ = fmt.Fprintf(out, "Warning: %s\n", w)
	}
	printConfigSummary(out, cfg)
	_, _ = fmt.Fprintln(out, "\nConfiguration valid!")
	return nil
}

func printConfigErrors(out io.Writer, e *config.ConfigError) {
	if len(e.Missing) > 0 {
		_, _ = fmt.Fprintln(out, "Missing environment variables:")
		for _, m := range e.Missing {
			_, _ = fmt.Fprintf(out, "  - %s\n", m)
		}
		_, _ = fmt.Fprintln(out)
	}

	if len(e.Errors) > 0 {
		_, _ = fmt.Fprintln(out, "Validation errors:")
		for _, err := range e.Errors {
			_, _ = fmt.Fprintf(out, "  - %s\n", err)
		}
		_, _ = fmt.Fprintln(out)
	}
}

func printConfigSummary(out io.Writer, cfg *config.Config) {
	_, _ = fmt.Fprintln(out, "Configuration Summary:")
	_, _ = fmt.Fprintf(out, "  Server:     %s:%d (log: %s, tz: %s)\n", cfg.Server.Host, cfg.Server.Port, cfg.Server.LogLevel, cfg.Server.Timezone)
	_, _ = fmt.Fprintf(out, "  Database:   %s\n", cfg.Database.Driver)
	_, _ = fmt.Fprintf(out, "  Sources:    %d builtin, %d bundles\n", len(cfg.Sources.Builtin), len(cfg.Sources.Bundles))

	cache := "memory"
	if cfg.Cache.RedisURL != "" {
		cache = "memory + redis"
	}
	_, _ = fmt.Fprintf(out, "  Cache:      %s (ttl %s)\n", cache, cfg.Search.CacheTTL)

	geo := "disabled"
	if cfg.Geo.IsEnabled() {
		geo = cfg.Geo.Endpoint
	}
	_, _ = fmt.Fprintf(out, "  Geo:        %s\n", geo)

	admin := "disabled"
	if cfg.Admin.Secret != "" {
		admin = "enabled"
	}
	_, _ = fmt.Fprintf(out, "  Admin:      %s\n", admin)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.DefaultPath()
	if len(args) > 0 {
		path = args[0]
	}
	if err := config.WriteDefault(path, configInitForce); err != nil {
		if errors.Is(err, config.ErrExists) {
			return fmt.Errorf("%w (use --force to overwrite)", err)
		}
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
