package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/labelsheet/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the catalog and symbol cache",
	}

	cmd.AddCommand(c.cacheStatsCommand())
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheStatsCommand creates the "cache stats" subcommand.
func (c *CLI) cacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show what the cache holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.newServices(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			r := svc.cache.Report()
			backend := "files"
			if svc.cfg.RedisURL != "" {
				backend = "redis"
			}
			printKeyValue("Directory", svc.cfg.CacheDir)
			printKeyValue("Metadata", fmt.Sprintf("%s, ttl %s", backend, svc.cfg.CacheTTL))
			printKeyValue("Symbols", fmt.Sprintf("%d files, %s", r.Assets.Entries, formatBytes(r.Assets.Bytes)))
			if svc.cfg.AssetMaxBytes > 0 {
				printKeyValue("Symbol limit", formatBytes(svc.cfg.AssetMaxBytes))
			}
			printTierCounters("Hit rate", r.Assets)
			return nil
		},
	}
}

func printTierCounters(key string, t cache.TierReport) {
	if t.Hits+t.Misses == 0 {
		return
	}
	printKeyValue(key, fmt.Sprintf("%.0f%% (%d hits, %d misses)", t.HitRate*100, t.Hits, t.Misses))
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete cached catalog data and symbols",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.newServices(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			svc.fetcher().Invalidate()
			n, err := svc.cache.Clear()
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			printSuccess("Cleared %d cached %s and the catalog listing", n, plural(n, "symbol"))
			printDetail("Directory: %s", svc.cfg.CacheDir)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.CacheDir)
			return nil
		},
	}
}

// formatBytes prints n with a binary unit suffix.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
