package pick

import "github.com/spiffcs/cherrypick/internal/model"

// FilterIgnored splits picks into those whose issue is on the ignore list
// and those that still need action. Input order is kept in both results.
func FilterIgnored(picks []model.CherryPick, ignores []int) (ignored, actionable []model.CherryPick) {
	if len(ignores) == 0 {
		return nil, picks
	}

	deny := make(map[int]struct{}, len(ignores))
	for _, id := range ignores {
		deny[id] = struct{}{}
	}

	for _, p := range picks {
		if _, ok := deny[p.Issue.ID]; ok {
			ignored = append(ignored, p)
		} else {
			actionable = append(actionable, p)
		}
	}
	return ignored, actionable
}
