package pick

import (
	"context"
	"fmt"

	"github.com/spiffcs/cherrypick/internal/model"
	"github.com/spiffcs/cherrypick/internal/release"
)

// OutcomeKind is the bucket an issue is classified into.
type OutcomeKind int

const (
	OutcomeOpen OutcomeKind = iota
	OutcomeMissingChangeset
	OutcomeCherrypickNotNeeded
	OutcomeCherrypickNeeded
	OutcomeIssueMissingExternalLink
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOpen:
		return "open"
	case OutcomeMissingChangeset:
		return "missing-changeset"
	case OutcomeCherrypickNotNeeded:
		return "cherrypick-not-needed"
	case OutcomeCherrypickNeeded:
		return "cherrypick-needed"
	case OutcomeIssueMissingExternalLink:
		return "missing-external-link"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is the classification of one issue. Picks is only populated for
// OutcomeCherrypickNeeded and Bug only for OutcomeIssueMissingExternalLink.
type Outcome struct {
	Kind  OutcomeKind
	Issue model.TrackedIssue
	Bug   *model.Bug
	Picks []model.CherryPick
}

// OutcomeForMissingLink records a defect-tracker bug that does not point at
// any tracked issue.
func OutcomeForMissingLink(bug model.Bug) Outcome {
	return Outcome{Kind: OutcomeIssueMissingExternalLink, Bug: &bug}
}

// Classifier runs the per-issue decision rules against a release environment.
type Classifier struct {
	env            *release.Environment
	crossReference bool
}

// NewClassifier creates a Classifier. When crossReference is set the
// external reference of an issue is copied onto its cherry-picks.
func NewClassifier(env *release.Environment, crossReference bool) *Classifier {
	return &Classifier{env: env, crossReference: crossReference}
}

// Classify applies the rules in order; the first that matches wins:
// open, no changesets, no candidate changesets, otherwise one pick per
// candidate. A candidate is an actionable changeset not yet on the
// release branch.
func (c *Classifier) Classify(ctx context.Context, issue model.TrackedIssue) (Outcome, error) {
	if err := issue.Validate(); err != nil {
		return Outcome{}, err
	}

	if issue.IsOpen() {
		return Outcome{Kind: OutcomeOpen, Issue: issue}, nil
	}

	if len(issue.Changesets) == 0 {
		return Outcome{Kind: OutcomeMissingChangeset, Issue: issue}, nil
	}

	repos := c.env.Repositories()
	var candidates []model.Changeset
	for _, cs := range issue.Changesets {
		// the branch is only consulted for actionable changesets
		if !cs.Actionable() {
			continue
		}
		merged, err := InBranch(ctx, repos, cs.Comments)
		if err != nil {
			return Outcome{}, fmt.Errorf("issue #%d revision %s: %w", issue.ID, cs.Revision, err)
		}
		if !merged {
			candidates = append(candidates, cs)
		}
	}

	if len(candidates) == 0 {
		return Outcome{Kind: OutcomeCherrypickNotNeeded, Issue: issue}, nil
	}

	picks := make([]model.CherryPick, 0, len(candidates))
	for _, cs := range candidates {
		repo, err := Locate(ctx, c.env, cs.Revision)
		if err != nil {
			return Outcome{}, fmt.Errorf("issue #%d: %w", issue.ID, err)
		}
		pick := model.CherryPick{
			Repository: repo,
			Issue:      issue.Ref(),
			Revision:   cs.Revision,
			Closed:     issue.ClosedOn,
		}
		if c.crossReference && issue.ExternalRef != nil {
			ref := *issue.ExternalRef
			pick.External = &ref
		}
		picks = append(picks, pick)
	}

	return Outcome{Kind: OutcomeCherrypickNeeded, Issue: issue, Picks: picks}, nil
}
