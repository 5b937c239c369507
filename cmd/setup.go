package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spiffcs/cherrypick/internal/release"
)

// NewCmdSetupEnvironment creates the setup-environment command.
func NewCmdSetupEnvironment() *cobra.Command {
	opts := NewOptions()

	cmd := &cobra.Command{
		Use:   "setup-environment <release-config>",
		Short: "Clone and fetch the repositories of a release",
		Long: `Clones every local repository of the release that is not present under
its namespace, optionally adds a remote for your fork, and fetches the
release branches from origin. GitHub-backed repositories only need a
reachable API.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			initLogging(opts, false)

			cfg, err := loadReleaseConfig(args[0], opts)
			if err != nil {
				return err
			}

			env, err := release.Setup(cmd.Context(), cfg, release.SetupOptions{
				Clone:       true,
				Fetch:       opts.Fetch,
				ForkUser:    opts.ForkUser,
				GitHubToken: cfg.GetGitHubToken(),
			})
			if err != nil {
				return err
			}

			for _, rc := range cfg.Repos {
				location := cfg.PathFor(rc)
				if rc.GitHub != "" {
					location = "github.com/" + rc.GitHub
				}
				fmt.Printf("  %-20s %s (%s)\n", rc.Name, location, cfg.BranchFor(rc))
			}
			fmt.Printf("%d repositories ready for %s\n", len(env.Names()), cfg.Release)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.ForkUser, "fork-user", "", "Add a remote named after this user pointing at their fork")
	cmd.Flags().BoolVar(&opts.Fetch, "fetch", true, "Fetch the release branch of every repository")
	addLogFlags(cmd, opts)

	return cmd
}
