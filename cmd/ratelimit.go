package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/spf13/cobra"

	"github.com/spiffcs/cherrypick/config"
	"github.com/spiffcs/cherrypick/internal/release"
)

// NewCmdRateLimit creates the ratelimit command.
func NewCmdRateLimit() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Check GitHub API rate limit status",
		Long: `Display the GitHub API quota used when a release lists repositories by
their GitHub slug instead of a local clone.`,
	}
	cmd.AddCommand(NewCmdRateLimitStatus())
	return cmd
}

// NewCmdRateLimitStatus creates the ratelimit status subcommand.
func NewCmdRateLimitStatus() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current rate limit status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			client := release.NewGitHubClient(cmd.Context(), cfg.GetGitHubToken())
			limits, _, err := client.RateLimit.Get(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get rate limits: %w", err)
			}

			printRateLimits(cmd.OutOrStdout(), limits, time.Now())
			return nil
		},
	}
}

func printRateLimits(w io.Writer, limits *github.RateLimits, now time.Time) {
	fmt.Fprintln(w, "GitHub API rate limits:")
	for _, l := range []struct {
		name string
		rate *github.Rate
	}{
		{"core", limits.GetCore()},
		{"search", limits.GetSearch()},
		{"graphql", limits.GetGraphQL()},
	} {
		if l.rate == nil {
			continue
		}
		reset := max(l.rate.Reset.Sub(now).Round(time.Second), 0)
		fmt.Fprintf(w, "  %-8s %5d/%-5d remaining, resets in %s\n", l.name, l.rate.Remaining, l.rate.Limit, reset)
	}
}
