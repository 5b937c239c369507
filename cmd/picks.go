package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/spiffcs/cherrypick/config"
	"github.com/spiffcs/cherrypick/internal/bugzilla"
	"github.com/spiffcs/cherrypick/internal/cache"
	"github.com/spiffcs/cherrypick/internal/constants"
	"github.com/spiffcs/cherrypick/internal/log"
	"github.com/spiffcs/cherrypick/internal/model"
	"github.com/spiffcs/cherrypick/internal/output"
	"github.com/spiffcs/cherrypick/internal/pick"
	"github.com/spiffcs/cherrypick/internal/redmine"
	"github.com/spiffcs/cherrypick/internal/release"
	"github.com/spiffcs/cherrypick/internal/source"
	"github.com/spiffcs/cherrypick/internal/stats"
	"github.com/spiffcs/cherrypick/internal/tui"
)

// pickRuntime bundles TUI-related state that's threaded through a run.
type pickRuntime struct {
	useTUI  bool
	events  chan tui.Event
	tuiDone chan error
	closed  bool
}

// startTUI initializes and starts the TUI goroutine if TUI mode is enabled.
func (rt *pickRuntime) startTUI(releaseName string, tasks []tui.Task) {
	if !rt.useTUI {
		return
	}
	rt.events = make(chan tui.Event, 100)
	rt.tuiDone = make(chan error, 1)
	go func() {
		rt.tuiDone <- tui.Run(rt.events, tui.WithTasks(tasks), tui.WithRelease(releaseName))
	}()
}

// close closes the event channel and waits for the TUI to finish. Safe to
// call more than once.
func (rt *pickRuntime) close() {
	if rt.closed {
		return
	}
	rt.closed = true
	closeTUI(rt.events, rt.tuiDone)
}

// sendEvent sends a task event to the TUI channel if it exists.
func (rt *pickRuntime) sendEvent(task tui.TaskID, status tui.TaskStatus, opts ...tui.TaskEventOption) {
	if rt.closed {
		return
	}
	sendTaskEvent(rt.events, task, status, opts...)
}

// fail marks task as failed, shuts the TUI down and returns err.
func (rt *pickRuntime) fail(task tui.TaskID, err error) error {
	rt.sendEvent(task, tui.StatusError, tui.WithError(err))
	rt.close()
	return err
}

// sendRateLimit forwards the GitHub rate limit state to the TUI.
func (rt *pickRuntime) sendRateLimit() {
	_, _, resetAt, limited := release.RateLimitStatus()
	if !limited {
		return
	}
	log.Warn("GitHub rate limit exhausted", "resets_at", resetAt.Format(time.RFC3339))
	if rt.events != nil && !rt.closed {
		tui.SendEvent(rt.events, tui.RateLimitEvent{Limited: true, ResetAt: resetAt})
	}
}

// progress returns a callback reporting completed/total for task. TUI
// updates are throttled; without a TUI progress goes to the log.
func (rt *pickRuntime) progress(task tui.TaskID, label string) func(completed, total int) {
	var lastUpdate atomic.Int64
	interval := int64(constants.TUIUpdateInterval)

	return func(completed, total int) {
		if total <= 0 {
			return
		}
		if !rt.useTUI {
			log.ProgressCount(label, completed, total)
			return
		}

		now := time.Now().UnixNano()
		last := lastUpdate.Load()
		if completed < total && now-last < interval {
			return
		}
		if !lastUpdate.CompareAndSwap(last, now) {
			return
		}
		rt.sendEvent(task, tui.StatusRunning,
			tui.WithProgress(float64(completed)/float64(total)),
			tui.WithMessage(fmt.Sprintf("%d/%d", completed, total)))
	}
}

// loadedIssues is what the load and fetch steps hand to classification.
type loadedIssues struct {
	issues     []model.TrackedIssue
	bugs       []model.Bug
	missingURL []model.Bug
}

// NewCmdCherryPicks creates the cherry-picks command.
func NewCmdCherryPicks(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cherry-picks <release-config>",
		Short: "Calculate the cherry-picks for a release (same as root cherrypick)",
		Long: `Loads the issues of a release, checks every changeset against the
release branch of each configured repository, and writes the cherry-pick
report.

Issues come from the bug list saved by "cherrypick bugzilla cherry-pick-list"
(--from bugzilla) or from the Redmine version named after the release
(--from redmine).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCherryPicks(cmd, args[0], opts)
		},
	}

	addPickFlags(cmd, opts)
	return cmd
}

// addPickFlags adds the cherry-pick run flags to a command.
func addPickFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVarP(&opts.Format, "output", "o", "", "Output format (yaml, json, table, markdown)")
	cmd.Flags().StringVar(&opts.OutputDir, "output-dir", "", "Directory reports are written under (default from config)")
	cmd.Flags().StringVar(&opts.BugsFile, "bugs-file", "", "Bug list to load in bugzilla mode (default bugs.json)")
	cmd.Flags().StringVar(&opts.From, "from", "", "Issue source: bugzilla or redmine (default from config)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "Concurrent fetch and classify workers (default from config)")
	cmd.Flags().BoolVar(&opts.Clone, "clone", false, "Clone repositories that are missing locally")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the report instead of writing it")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "Bypass the issue cache")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "Do not record this run in the history")

	addLogFlags(cmd, opts)

	// TUI flag with tri-state: nil = auto, true = force, false = disable
	cmd.Flags().Var(newTUIFlag(opts), "tui", "Enable/disable TUI progress (default: auto-detect)")

	// Profiling flags
	cmd.Flags().StringVar(&opts.CPUProfile, "cpuprofile", "", "Write CPU profile to file")
	cmd.Flags().StringVar(&opts.MemProfile, "memprofile", "", "Write memory profile to file")
	cmd.Flags().StringVar(&opts.Trace, "trace", "", "Write execution trace to file")
}

// addLogFlags adds the verbosity flags shared by every command that logs.
func addLogFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")
	cmd.Flags().BoolVar(&opts.LogJSON, "log-json", false, "Write logs as JSON")
}

func runCherryPicks(cmd *cobra.Command, path string, opts *Options) error {
	ctx := cmd.Context()
	start := time.Now()

	// Setup
	rt, cleanup, err := setupRuntime(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg, err := loadReleaseConfig(path, opts)
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(firstNonEmpty(opts.Format, cfg.DefaultFormat))
	if err != nil {
		return err
	}
	from, err := resolveFrom(opts.From, cfg)
	if err != nil {
		return err
	}
	if cfg.Redmine.URL == "" {
		return errors.New("redmine.url is not configured (see 'cherrypick config init')")
	}

	tasks := tui.DefaultTasks()
	if from == FromBugzilla {
		tasks = tui.BugzillaTasks()
	}
	rt.startTUI(cfg.Release, tasks)
	defer rt.close()

	rt.sendEvent(tui.TaskSetup, tui.StatusRunning)
	env, err := release.Setup(ctx, cfg, release.SetupOptions{
		Clone:       opts.Clone,
		GitHubToken: cfg.GetGitHubToken(),
	})
	if err != nil {
		return rt.fail(tui.TaskSetup, err)
	}
	rt.sendEvent(tui.TaskSetup, tui.StatusComplete, tui.WithCount(len(env.Names())))

	// Load and fetch
	var loaded *loadedIssues
	if from == FromBugzilla {
		loaded, err = loadFromBugs(ctx, rt, cfg, opts)
	} else {
		loaded, err = loadFromVersion(ctx, rt, cfg, opts)
	}
	if err != nil {
		return err
	}

	// Classify
	rt.sendEvent(tui.TaskClassify, tui.StatusRunning)
	crossRef := from == FromBugzilla || cfg.Bugzilla.Enabled
	report, err := pick.NewEngine(env, crossRef).Run(ctx, loaded.issues, pick.RunOptions{
		Workers:        cfg.Workers,
		Ignores:        cfg.Ignores,
		Bugs:           loaded.bugs,
		BugsMissingURL: loaded.missingURL,
		OnProgress:     rt.progress(tui.TaskClassify, "classifying issues"),
	})
	rt.sendRateLimit()
	if err != nil {
		return rt.fail(tui.TaskClassify, err)
	}
	summary := report.Summary()
	rt.sendEvent(tui.TaskClassify, tui.StatusComplete, tui.WithMessage(fmt.Sprintf("%d needed", summary.Needed)))

	// Write
	linkOpts := output.Options{RedmineURL: cfg.Redmine.URL, BugzillaURL: bugzillaWebURL(cfg.Bugzilla.URL)}
	var written string
	if opts.DryRun {
		rt.sendEvent(tui.TaskWrite, tui.StatusSkipped, tui.WithMessage("dry run"))
	} else {
		rt.sendEvent(tui.TaskWrite, tui.StatusRunning)
		fileFormat := format
		if format == output.FormatTable {
			fileFormat = output.FormatYAML
		}
		written, err = output.WriteReportFile(cfg.OutputDir, cfg.Release, report, fileFormat, linkOpts)
		if err != nil {
			return rt.fail(tui.TaskWrite, err)
		}
		rt.sendEvent(tui.TaskWrite, tui.StatusComplete, tui.WithMessage(written))
	}
	rt.close()

	if !opts.NoHistory {
		recordHistory(stats.NewSnapshot(cfg.Release, from, len(loaded.issues), summary, time.Since(start)))
	}

	// Output
	if opts.DryRun || format == output.FormatTable {
		return output.NewFormatter(format, linkOpts).Format(report, os.Stdout)
	}
	if rt.useTUI {
		fmt.Println(tui.RenderSummary(cfg.Release, summary))
	}
	fmt.Printf("Report written to %s\n", written)
	return nil
}

// setupRuntime creates the runtime struct and returns a cleanup function for profiling.
func setupRuntime(opts *Options) (*pickRuntime, func(), error) {
	profiler := NewProfiler(opts.CPUProfile, opts.MemProfile, opts.Trace)
	if err := profiler.Start(); err != nil {
		return nil, nil, err
	}

	useTUI := shouldUseTUI(opts)

	// Suppress logs during TUI to avoid interleaving with the display
	initLogging(opts, useTUI)

	rt := &pickRuntime{useTUI: useTUI}
	return rt, profiler.Stop, nil
}

func initLogging(opts *Options, quiet bool) {
	var logOpts []log.Option
	if opts.LogJSON {
		logOpts = append(logOpts, log.WithJSON())
	}
	var w io.Writer = os.Stderr
	if quiet {
		w = io.Discard
	}
	log.Initialize(opts.Verbosity, w, logOpts...)
}

// loadReleaseConfig loads the release file and applies command-line overrides.
func loadReleaseConfig(path string, opts *Options) (*config.Config, error) {
	cfg, err := config.LoadRelease(path)
	if err != nil {
		return nil, err
	}

	if opts.OutputDir != "" {
		cfg.OutputDir = opts.OutputDir
	}
	if opts.Workers > 0 {
		cfg.Workers = opts.Workers
	}
	if opts.BugsFile != "" {
		cfg.Bugzilla.BugsFile = opts.BugsFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// resolveFrom picks the issue source. Without a flag, bugzilla is used when
// it is enabled in the config.
func resolveFrom(from string, cfg *config.Config) (string, error) {
	switch strings.ToLower(from) {
	case "":
		if cfg.Bugzilla.Enabled {
			return FromBugzilla, nil
		}
		return FromRedmine, nil
	case FromBugzilla:
		return FromBugzilla, nil
	case FromRedmine:
		return FromRedmine, nil
	default:
		return "", fmt.Errorf("invalid --from %q: use %s or %s", from, FromBugzilla, FromRedmine)
	}
}

// newSource builds the Redmine issue source, with the on-disk cache unless
// disabled.
func newSource(cfg *config.Config, opts *Options, onProgress source.ProgressFunc) *source.Source {
	srcOpts := source.Options{
		Server:           cfg.Redmine.URL,
		ExternalRefField: cfg.Redmine.ExternalRefField,
		Workers:          cfg.Workers,
		OnProgress:       onProgress,
	}
	if !opts.NoCache {
		c, err := cache.NewCache()
		if err != nil {
			log.Warn("issue cache unavailable", "error", err)
		} else {
			srcOpts.Cache = c
		}
	}
	return source.New(redmine.NewClient(cfg.Redmine.URL, cfg.GetRedmineAPIKey()), srcOpts)
}

func loadFromBugs(ctx context.Context, rt *pickRuntime, cfg *config.Config, opts *Options) (*loadedIssues, error) {
	path := firstNonEmpty(cfg.Bugzilla.BugsFile, bugzilla.DefaultBugsFile)

	rt.sendEvent(tui.TaskLoad, tui.StatusRunning, tui.WithMessage(path))
	bugs, err := bugzilla.LoadBugsFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		err = fmt.Errorf("%w (run 'cherrypick bugzilla cherry-pick-list' first)", err)
	}
	if err != nil {
		return nil, rt.fail(tui.TaskLoad, err)
	}
	rt.sendEvent(tui.TaskLoad, tui.StatusComplete, tui.WithCount(len(bugs)))

	rt.sendEvent(tui.TaskFetch, tui.StatusRunning)
	src := newSource(cfg, opts, rt.progress(tui.TaskFetch, "fetching issues"))
	res, err := src.FromBugs(ctx, bugs)
	if err != nil {
		return nil, rt.fail(tui.TaskFetch, err)
	}
	rt.sendEvent(tui.TaskFetch, tui.StatusComplete, tui.WithCount(len(res.Issues)))

	return &loadedIssues{issues: res.Issues, bugs: bugs, missingURL: res.MissingURL}, nil
}

func loadFromVersion(ctx context.Context, rt *pickRuntime, cfg *config.Config, opts *Options) (*loadedIssues, error) {
	if cfg.Project == "" {
		return nil, errors.New("project is not configured; it names the Redmine project holding the release version")
	}

	rt.sendEvent(tui.TaskLoad, tui.StatusRunning, tui.WithMessage(cfg.Project+" "+cfg.Release))

	// The first progress call carries the size of the version's issue list.
	var listed sync.Once
	fetchProgress := rt.progress(tui.TaskFetch, "fetching issues")
	onProgress := func(completed, total int) {
		listed.Do(func() {
			rt.sendEvent(tui.TaskLoad, tui.StatusComplete, tui.WithCount(total))
			rt.sendEvent(tui.TaskFetch, tui.StatusRunning)
		})
		fetchProgress(completed, total)
	}

	issues, err := newSource(cfg, opts, onProgress).FromVersion(ctx, cfg.Project, cfg.Release)
	if err != nil {
		return nil, rt.fail(tui.TaskFetch, err)
	}
	listed.Do(func() {
		rt.sendEvent(tui.TaskLoad, tui.StatusComplete, tui.WithCount(len(issues)))
	})
	rt.sendEvent(tui.TaskFetch, tui.StatusComplete, tui.WithCount(len(issues)))

	return &loadedIssues{issues: issues}, nil
}

// recordHistory appends a run snapshot. Failures only warn.
func recordHistory(snap stats.Snapshot) {
	store, err := stats.NewStore()
	if err != nil {
		log.Debug("history unavailable", "error", err)
		return
	}
	if err := store.Append(snap); err != nil {
		log.Warn("failed to record run history", "error", err)
	}
}

// bugzillaWebURL turns the JSON-RPC endpoint into the base of bug links.
func bugzillaWebURL(endpoint string) string {
	if endpoint == "" {
		endpoint = bugzilla.DefaultURL
	}
	return strings.TrimSuffix(strings.TrimSuffix(endpoint, "/jsonrpc.cgi"), "/")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// sendTaskEvent sends a task event to the TUI channel if it exists.
func sendTaskEvent(events chan tui.Event, task tui.TaskID, status tui.TaskStatus, opts ...tui.TaskEventOption) {
	if events == nil {
		log.Debug("task", "id", int(task), "status", status.String())
		return
	}
	tui.SendTaskEvent(events, task, status, opts...)
}

// closeTUI closes the event channel and waits for the TUI to finish.
func closeTUI(events chan tui.Event, tuiDone chan error) {
	if events == nil {
		return
	}
	close(events)
	if tuiDone != nil {
		<-tuiDone
	}
}
