package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/spiffcs/cherrypick/internal/cache"
	"github.com/spiffcs/cherrypick/internal/constants"
)

// NewCmdCache creates the cache command with subcommands.
func NewCmdCache() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the Redmine issue cache",
	}

	cmd.AddCommand(newCmdCacheClear())
	cmd.AddCommand(newCmdCacheStats())

	return cmd
}

func newCmdCacheClear() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the Redmine issue cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := cache.NewCache()
			if err != nil {
				return fmt.Errorf("failed to access cache: %w", err)
			}
			if err := c.Clear(); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared (%s).\n", c.Dir())
			return nil
		},
	}
}

func newCmdCacheStats() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := cache.NewCache()
			if err != nil {
				return fmt.Errorf("failed to access cache: %w", err)
			}
			stats, err := c.Stats()
			if err != nil {
				return fmt.Errorf("failed to get cache stats: %w", err)
			}
			printCacheStats(cmd.OutOrStdout(), c.Dir(), stats)
			return nil
		},
	}
}

func printCacheStats(w io.Writer, dir string, stats *cache.Stats) {
	fmt.Fprintf(w, "Cache statistics (%s):\n", dir)
	fmt.Fprintf(w, "  Issues (TTL: %s closed, %s open):\n", constants.ClosedIssueCacheTTL, constants.OpenIssueCacheTTL)
	fmt.Fprintf(w, "    Total: %d\n", stats.IssueTotal)
	fmt.Fprintf(w, "    Valid: %d\n", stats.IssueValid)
	fmt.Fprintf(w, "    Expired: %d\n", stats.IssueTotal-stats.IssueValid)
	fmt.Fprintf(w, "  Version issue lists (TTL: %s):\n", constants.IssueListCacheTTL)
	fmt.Fprintf(w, "    Total: %d\n", stats.ListTotal)
	fmt.Fprintf(w, "    Valid: %d\n", stats.ListValid)
	fmt.Fprintf(w, "    Expired: %d\n", stats.ListTotal-stats.ListValid)
}
