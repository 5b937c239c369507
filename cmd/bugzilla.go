package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spiffcs/cherrypick/config"
	"github.com/spiffcs/cherrypick/internal/bugzilla"
	"github.com/spiffcs/cherrypick/internal/log"
	"github.com/spiffcs/cherrypick/internal/model"
)

// NewCmdBugzilla creates the bugzilla command with subcommands.
func NewCmdBugzilla() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bugzilla",
		Short: "Manage the Bugzilla side of a release",
		Long: `Mark and list the Bugzilla bugs that need cherry-picks.

Subcommands:
  flag-cherry-picks  Mark the acked bugs of a release as needing a cherry-pick
  cherry-pick-list   Save the marked bugs to the bug list read by cherry-picks`,
	}

	cmd.AddCommand(NewCmdFlagCherryPicks())
	cmd.AddCommand(NewCmdCherryPickList())

	return cmd
}

// NewCmdFlagCherryPicks creates the bugzilla flag-cherry-picks subcommand.
func NewCmdFlagCherryPicks() *cobra.Command {
	opts := NewOptions()
	var unflag bool

	cmd := &cobra.Command{
		Use:   "flag-cherry-picks <release-config>",
		Short: "Mark the acked bugs of a release as needing a cherry-pick",
		Long: `Searches for the release's bugs (bugzilla.product, bugzilla.statuses and
every flag in bugzilla.flags) and adds the needs_cherrypick marker to their
devel whiteboard. Use --clear to remove the marker instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			initLogging(opts, false)
			cfg, err := loadReleaseConfig(args[0], opts)
			if err != nil {
				return err
			}
			return runFlagCherryPicks(cmd, cfg, unflag, opts.DryRun)
		},
	}

	cmd.Flags().BoolVar(&unflag, "clear", false, "Remove the marker instead of adding it")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "List the bugs without changing them")
	addLogFlags(cmd, opts)

	return cmd
}

func runFlagCherryPicks(cmd *cobra.Command, cfg *config.Config, unflag, dryRun bool) error {
	if len(cfg.Bugzilla.Flags) == 0 {
		return errors.New("bugzilla.flags is empty; list the acks a bug needs, e.g. pm_ack+")
	}

	user, pass := cfg.GetBugzillaCredentials()
	if !dryRun && (user == "" || pass == "") {
		return errors.New("updating bugs needs BUGZILLA_USERNAME and BUGZILLA_PASSWORD")
	}
	client := bugzilla.NewClient(cfg.Bugzilla.URL, user, pass)

	bugs, err := client.BugsForRelease(cmd.Context(), bugzilla.BugQuery{
		Product:  cfg.Bugzilla.Product,
		Statuses: cfg.Bugzilla.Statuses,
		Flags:    cfg.Bugzilla.Flags,
	})
	if err != nil {
		return fmt.Errorf("search bugs: %w", err)
	}
	if len(bugs) == 0 {
		fmt.Println("No bugs match the release query.")
		return nil
	}

	ids := bugIDs(bugs)
	if dryRun {
		for _, b := range bugs {
			fmt.Printf("%s  %s\n", b.ExternalID(), b.Summary)
		}
		fmt.Printf("%d bugs would be updated\n", len(ids))
		return nil
	}

	update := client.SetNeedsCherryPick
	verb := "Flagged"
	if unflag {
		update = client.ClearNeedsCherryPick
		verb = "Cleared"
	}

	changed, err := update(cmd.Context(), ids)
	if err != nil {
		return fmt.Errorf("update whiteboards: %w", err)
	}
	log.Info("updated whiteboards", "matched", len(ids), "changed", len(changed))
	fmt.Printf("%s %d of %d bugs\n", verb, len(changed), len(ids))
	return nil
}

// NewCmdCherryPickList creates the bugzilla cherry-pick-list subcommand.
func NewCmdCherryPickList() *cobra.Command {
	opts := NewOptions()

	cmd := &cobra.Command{
		Use:   "cherry-pick-list [release-config]",
		Short: "Save the bugs marked as needing a cherry-pick",
		Long: `Searches for every bug whose devel whiteboard carries the needs_cherrypick
marker and saves them to the bug list (bugs.json unless --bugs-file or
bugzilla.bugs_file say otherwise).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			initLogging(opts, false)

			var cfg *config.Config
			var err error
			if len(args) == 1 {
				cfg, err = loadReleaseConfig(args[0], opts)
			} else {
				cfg, err = config.Load()
			}
			if err != nil {
				return err
			}

			user, pass := cfg.GetBugzillaCredentials()
			client := bugzilla.NewClient(cfg.Bugzilla.URL, user, pass)

			bugs, err := client.NeedsCherryPick(cmd.Context())
			if err != nil {
				return fmt.Errorf("search bugs: %w", err)
			}

			path := firstNonEmpty(opts.BugsFile, cfg.Bugzilla.BugsFile, bugzilla.DefaultBugsFile)
			if err := bugzilla.SaveBugsFile(path, bugs); err != nil {
				return err
			}
			fmt.Printf("Saved %d bugs to %s\n", len(bugs), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.BugsFile, "bugs-file", "", "Where to save the bug list")
	addLogFlags(cmd, opts)

	return cmd
}

func bugIDs(bugs []model.Bug) []int {
	ids := make([]int, len(bugs))
	for i, b := range bugs {
		ids[i] = b.ID
	}
	return ids
}
