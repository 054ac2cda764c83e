// Package main is the entry point for cachectl, the cache maintenance CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"everpedia/internal/adapter/filestore"
	"everpedia/internal/infra/config"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "cachectl",
	Short: "Inspect and maintain the page and image cache",
	Long: `cachectl operates on the flat-file cache the server writes to.

It reads the same configuration as the server (CACHE_DIR, the TTL
variables), so pointing it at a deployment only needs the same .env.

Example usage:
  cachectl stats                         # Show cache file counts and size
  cachectl clear-expired                 # Remove entries past the page TTL
  cachectl clear-expired --max-age-hours 1`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache file counts and total size",
	RunE:  runStats,
}

var clearExpiredCmd = &cobra.Command{
	Use:   "clear-expired",
	Short: "Delete cache entries older than the given age",
	RunE:  runClearExpired,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	clearExpiredCmd.Flags().Int("max-age-hours", 0, "age threshold in hours (default: PAGE_TTL_HOURS)")
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(clearExpiredCmd)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func openCache() (*filestore.DiskCache, *config.Config, error) {
	cfg := config.Load()

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cache, err := filestore.NewDiskCache(cfg.CacheDir, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache at %s: %w", cfg.CacheDir, err)
	}
	return cache, cfg, nil
}

func runStats(cmd *cobra.Command, args []string) error {
	cache, cfg, err := openCache()
	if err != nil {
		return err
	}

	stats, err := cache.Stats()
	if err != nil {
		return fmt.Errorf("failed to read cache stats: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Cache directory: %s\n", cfg.CacheDir)
	fmt.Fprintf(w, "Entries:         %d (%d text, %d binary)\n",
		stats.FileCount, stats.TextFiles, stats.BinaryFiles)
	fmt.Fprintf(w, "Total size:      %s\n", humanBytes(stats.TotalSizeBytes))
	return nil
}

func runClearExpired(cmd *cobra.Command, args []string) error {
	cache, cfg, err := openCache()
	if err != nil {
		return err
	}

	hours, _ := cmd.Flags().GetInt("max-age-hours")
	if hours <= 0 {
		hours = cfg.PageTTLHours
	}
	maxAge := time.Duration(hours) * time.Hour

	removed, err := cache.ClearExpired(maxAge)
	if err != nil {
		return fmt.Errorf("failed to clear expired entries: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries older than %s\n", removed, maxAge)
	return nil
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
