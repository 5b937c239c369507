package output

import (
	"encoding/json"
	"io"

	"github.com/spiffcs/cherrypick/internal/pick"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Pretty bool
}

// Format writes r as a JSON object keyed by section name.
func (f *JSONFormatter) Format(r *pick.Report, w io.Writer) error {
	encoder := json.NewEncoder(w)
	if f.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(r)
}

// JSONOutput wraps a report with its counts.
type JSONOutput struct {
	Release string       `json:"release"`
	Report  *pick.Report `json:"report"`
	Summary pick.Summary `json:"summary"`
}

// FormatWithSummary writes the report together with its summary.
func (f *JSONFormatter) FormatWithSummary(release string, r *pick.Report, w io.Writer) error {
	encoder := json.NewEncoder(w)
	if f.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(JSONOutput{
		Release: release,
		Report:  r,
		Summary: r.Summary(),
	})
}
