package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/spiffcs/cherrypick/internal/duration"
	"github.com/spiffcs/cherrypick/internal/format"
	"github.com/spiffcs/cherrypick/internal/stats"
	"github.com/spiffcs/cherrypick/internal/tui"
)

type historyOptions struct {
	since   string
	release string
	limit   int
	output  string
	clear   bool
}

// NewCmdHistory creates the history command.
func NewCmdHistory() *cobra.Command {
	opts := &historyOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent cherry-pick runs",
		Long: `Shows the bucket counts recorded by recent cherry-pick runs, newest
last, with a trend of needed picks, open issues and not-needed issues.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := stats.NewStore()
			if err != nil {
				return err
			}
			if opts.clear {
				if err := store.Clear(); err != nil {
					return err
				}
				fmt.Println("History cleared.")
				return nil
			}
			return runHistory(store, opts, os.Stdout, time.Now())
		},
	}

	cmd.Flags().StringVarP(&opts.since, "since", "s", "30d", "Show runs since (e.g., 1w, 30d, 6mo)")
	cmd.Flags().StringVar(&opts.release, "release", "", "Only show runs for this release")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 20, "Maximum runs to list")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "table", "Output format (table, json)")
	cmd.Flags().BoolVar(&opts.clear, "clear", false, "Delete all recorded history")

	return cmd
}

func runHistory(store *stats.Store, opts *historyOptions, w io.Writer, now time.Time) error {
	since, err := duration.Since(opts.since, now)
	if err != nil {
		return err
	}

	snapshots := store.Query(opts.release, since)
	if opts.limit > 0 && len(snapshots) > opts.limit {
		snapshots = snapshots[len(snapshots)-opts.limit:]
	}

	switch opts.output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if snapshots == nil {
			snapshots = []stats.Snapshot{}
		}
		return enc.Encode(snapshots)
	case "table", "":
	default:
		return fmt.Errorf("unknown format %q: use table or json", opts.output)
	}

	if len(snapshots) == 0 {
		fmt.Fprintf(w, "No runs since %s.\n", opts.since)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tRELEASE\tSOURCE\tISSUES\tNEEDED\tOPEN\tNOT NEEDED\tTOOK")
	for _, s := range snapshots {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			format.Ago(now.Sub(s.Timestamp)),
			s.Release,
			s.Source,
			s.Issues,
			s.Needed,
			s.Open,
			s.NotNeeded,
			(time.Duration(s.DurationMS) * time.Millisecond).Round(time.Millisecond*100),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, tui.RenderTrends(snapshots))
	return nil
}
