package bugzilla

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spiffcs/cherrypick/internal/model"
)

func TestLoadBugsFile(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantIDs []int
		wantErr bool
	}{
		{"rpc response", `{"result":{"bugs":[{"id":1,"url":"u"},{"id":2,"url":""}]}}`, []int{1, 2}, false},
		{"saved list", `{"bugs":[{"id":3,"url":"u","assigned_to":"x"}]}`, []int{3}, false},
		{"empty", `{}`, nil, false},
		{"invalid", `not json`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			bugs, err := LoadBugsFile(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadBugsFile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(bugs) != len(tt.wantIDs) {
				t.Fatalf("got %d bugs, want %d", len(bugs), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if bugs[i].ID != id {
					t.Errorf("bugs[%d].ID = %d, want %d", i, bugs[i].ID, id)
				}
			}
		})
	}
}

func TestSaveBugsFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", DefaultBugsFile)
	in := []model.Bug{{ID: 5, URL: "https://redmine/issues/9", Summary: "s", AssignedTo: "a@example.com"}}

	if err := SaveBugsFile(path, in); err != nil {
		t.Fatalf("SaveBugsFile() error: %v", err)
	}
	out, err := LoadBugsFile(path)
	if err != nil {
		t.Fatalf("LoadBugsFile() error: %v", err)
	}
	if len(out) != 1 || out[0] != in[0] {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestLoadBugsFileMissing(t *testing.T) {
	if _, err := LoadBugsFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("LoadBugsFile() expected error for missing file")
	}
}
