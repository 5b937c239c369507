// Package constants provides a centralized location for configuration
// values and magic numbers used throughout the cherrypick application.
package constants

import "time"

// TUI update and display constants
const (
	// TUIUpdateInterval is the minimum time between TUI progress updates
	// to provide smooth progress display without excessive overhead.
	TUIUpdateInterval = 50 * time.Millisecond

	// LogThrottlePercent is the interval (in percent) at which progress
	// logs are emitted when not using the TUI.
	LogThrottlePercent = 5

	// TruncationSuffixWidth is the width of the "..." suffix when truncating strings.
	TruncationSuffixWidth = 3

	// SubjectColumnWidth is the maximum width of issue subjects in table output.
	SubjectColumnWidth = 60
)

// Rate limiting constants
const (
	// RateLimitLowWatermark is the threshold below which rate limit
	// warnings are logged.
	RateLimitLowWatermark = 100
)

// Cache TTL constants
const (
	// ClosedIssueCacheTTL is the maximum age of a cached closed issue.
	ClosedIssueCacheTTL = 24 * time.Hour

	// OpenIssueCacheTTL is shorter because open issues still gain changesets.
	OpenIssueCacheTTL = 15 * time.Minute

	// IssueListCacheTTL is the TTL for cached version issue lists.
	IssueListCacheTTL = 15 * time.Minute
)

// Concurrency defaults
const (
	// DefaultWorkers bounds concurrent issue fetches and classification.
	DefaultWorkers = 4
)

// History constants
const (
	// MaxHistoryEntries is how many run snapshots are kept.
	MaxHistoryEntries = 1000
)
