package bugzilla

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spiffcs/cherrypick/internal/model"
)

// DefaultBugsFile is where cherry-pick-list writes its bug list.
const DefaultBugsFile = "bugs.json"

type bugsFile struct {
	Result *bugsResult `json:"result,omitempty"`
	Bugs   []model.Bug `json:"bugs"`
}

// LoadBugsFile reads a bug list saved by SaveBugsFile or a raw JSON-RPC
// response ({"result": {"bugs": [...]}}).
func LoadBugsFile(path string) ([]model.Bug, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bugs file: %w", err)
	}

	var f bugsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse bugs file %s: %w", path, err)
	}

	if f.Result != nil {
		return f.Result.Bugs, nil
	}
	return f.Bugs, nil
}

// SaveBugsFile writes bugs as {"bugs": [...]}.
func SaveBugsFile(path string, bugs []model.Bug) error {
	if bugs == nil {
		bugs = []model.Bug{}
	}
	data, err := json.MarshalIndent(bugsFile{Bugs: bugs}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal bugs: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write bugs file: %w", err)
	}
	return nil
}
