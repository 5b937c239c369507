package cmd

import (
	"github.com/spf13/cobra"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := NewOptions()

	rootCmd := &cobra.Command{
		Use:   "cherrypick [release-config]",
		Short: "Release cherry-pick calculator",
		Long: `Works out which commits still have to be cherry-picked onto a
release branch. Issues are loaded from Redmine (directly, or through the
Bugzilla bugs that link to them), their changesets are checked against the
release branch of every configured repository, and a report is written to
<output_dir>/<release>/cherry_picks_<release>.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runCherryPicks(cmd, args[0], opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// `cherrypick <file>` and `cherrypick cherry-picks <file>` work identically
	addPickFlags(rootCmd, opts)

	rootCmd.AddCommand(NewCmdCherryPicks(opts))
	rootCmd.AddCommand(NewCmdBugzilla())
	rootCmd.AddCommand(NewCmdSetupEnvironment())
	rootCmd.AddCommand(NewCmdHistory())
	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdCache())
	rootCmd.AddCommand(NewCmdRateLimit())
	rootCmd.AddCommand(NewCmdVersion())

	return rootCmd
}
