package cmd

// Options holds the shared command-line options for the cherrypick CLI.
type Options struct {
	Format    string
	OutputDir string
	BugsFile  string
	From      string // bugzilla or redmine; empty selects from config
	Workers   int
	Verbosity int
	LogJSON   bool
	Clone     bool
	DryRun    bool
	NoCache   bool
	NoHistory bool
	TUI       *bool // nil = auto-detect, true = force TUI, false = disable TUI

	// Environment setup
	Fetch    bool
	ForkUser string

	// Profiling options
	CPUProfile string
	MemProfile string
	Trace      string
}

// Issue sources accepted by --from.
const (
	FromBugzilla = "bugzilla"
	FromRedmine  = "redmine"
)

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options with defaults and applies any provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithFormat sets the output format (yaml, json, table, markdown).
func WithFormat(format string) Option {
	return func(o *Options) {
		o.Format = format
	}
}

// WithFrom selects the issue source.
func WithFrom(from string) Option {
	return func(o *Options) {
		o.From = from
	}
}

// WithBugsFile sets the bug list read in bugzilla mode.
func WithBugsFile(path string) Option {
	return func(o *Options) {
		o.BugsFile = path
	}
}

// WithOutputDir sets the directory reports are written under.
func WithOutputDir(dir string) Option {
	return func(o *Options) {
		o.OutputDir = dir
	}
}

// WithWorkers sets the number of concurrent workers.
func WithWorkers(workers int) Option {
	return func(o *Options) {
		o.Workers = workers
	}
}

// WithVerbosity sets the verbosity level.
func WithVerbosity(v int) Option {
	return func(o *Options) {
		o.Verbosity = v
	}
}

// WithDryRun prints the report instead of writing it.
func WithDryRun(dryRun bool) Option {
	return func(o *Options) {
		o.DryRun = dryRun
	}
}

// WithTUI controls TUI mode (nil = auto-detect, true = force, false = disable).
func WithTUI(tui *bool) Option {
	return func(o *Options) {
		o.TUI = tui
	}
}
