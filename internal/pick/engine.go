package pick

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/spiffcs/cherrypick/internal/log"
	"github.com/spiffcs/cherrypick/internal/model"
	"github.com/spiffcs/cherrypick/internal/release"
)

// ProgressFunc is called as issues finish classification.
type ProgressFunc func(completed, total int)

// RunOptions configures a run.
type RunOptions struct {
	// Workers bounds concurrent classification. Values below 1 classify
	// issues one at a time.
	Workers int
	// Ignores lists issue ids whose cherry-picks are reported separately.
	Ignores []int
	// Bugs are the defect-tracker bugs the issues were loaded from.
	Bugs []model.Bug
	// BugsMissingURL are bugs that link to no issue.
	BugsMissingURL []model.Bug
	OnProgress     ProgressFunc
}

// Engine classifies a batch of issues and assembles the report.
type Engine struct {
	classifier     IssueClassifier
	crossReference bool
}

// NewEngine creates an Engine for the release environment.
func NewEngine(env *release.Environment, crossReference bool) *Engine {
	return NewEngineWithClassifier(NewClassifier(env, crossReference), crossReference)
}

// NewEngineWithClassifier creates an Engine around an existing classifier.
func NewEngineWithClassifier(c IssueClassifier, crossReference bool) *Engine {
	return &Engine{classifier: c, crossReference: crossReference}
}

// Run classifies every issue and returns the assembled report. Any error
// aborts the run and no report is returned.
func (e *Engine) Run(ctx context.Context, issues []model.TrackedIssue, opts RunOptions) (*Report, error) {
	outcomes, err := e.classifyAll(ctx, issues, opts)
	if err != nil {
		return nil, err
	}

	for _, bug := range opts.BugsMissingURL {
		outcomes = append(outcomes, OutcomeForMissingLink(bug))
	}

	in := collect(outcomes, opts.Ignores)
	in.Bugs = opts.Bugs
	in.CrossReference = e.crossReference

	report := Assemble(in)
	log.Debug("report assembled", "sections", len(report.Sections), "issues", len(issues))
	return report, nil
}

// classifyAll returns one outcome per issue in input order.
func (e *Engine) classifyAll(ctx context.Context, issues []model.TrackedIssue, opts RunOptions) ([]Outcome, error) {
	total := len(issues)
	outcomes := make([]Outcome, total)

	var completed int32
	report := func() {
		if opts.OnProgress != nil {
			opts.OnProgress(int(atomic.AddInt32(&completed, 1)), total)
		}
	}
	if opts.OnProgress != nil {
		opts.OnProgress(0, total)
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, issue := range issues {
		g.Go(func() error {
			outcome, err := e.classifier.Classify(gctx, issue)
			if err != nil {
				return fmt.Errorf("classify issue #%d: %w", issue.ID, err)
			}
			outcomes[i] = outcome
			log.Trace("issue classified", "issue", issue.ID, "outcome", outcome.Kind)
			report()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// collect folds outcomes into assembler input in a single pass.
func collect(outcomes []Outcome, ignores []int) AssembleInput {
	var in AssembleInput
	var picks []model.CherryPick

	for _, o := range outcomes {
		switch o.Kind {
		case OutcomeOpen:
			in.Open = append(in.Open, o.Issue)
		case OutcomeMissingChangeset:
			in.MissingChangeset = append(in.MissingChangeset, o.Issue)
		case OutcomeCherrypickNotNeeded:
			in.NotNeeded = append(in.NotNeeded, o.Issue)
		case OutcomeCherrypickNeeded:
			picks = append(picks, o.Picks...)
		case OutcomeIssueMissingExternalLink:
			if o.Bug != nil {
				in.BugsMissingURL = append(in.BugsMissingURL, *o.Bug)
			}
		}
	}

	in.Ignored, in.Actionable = FilterIgnored(picks, ignores)
	return in
}
