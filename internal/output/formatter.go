// Package output renders cherry-pick reports and writes them to disk.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/spiffcs/cherrypick/internal/pick"
)

// Format represents the output format
type Format string

const (
	FormatYAML     Format = "yaml"
	FormatJSON     Format = "json"
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
)

// Formats lists every supported format.
var Formats = []Format{FormatYAML, FormatJSON, FormatTable, FormatMarkdown}

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case "":
		return FormatYAML, nil
	case "yml":
		return FormatYAML, nil
	case "md":
		return FormatMarkdown, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q (want one of yaml, json, table, markdown)", s)
}

// Formatter renders a report.
type Formatter interface {
	Format(r *pick.Report, w io.Writer) error
}

// Options carries the tracker URLs used to build links.
type Options struct {
	RedmineURL  string
	BugzillaURL string
}

// NewFormatter creates a formatter for the specified format.
func NewFormatter(format Format, opts Options) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Pretty: true}
	case FormatTable:
		return &TableFormatter{Links: links(opts)}
	case FormatMarkdown:
		return &MarkdownFormatter{Links: links(opts)}
	default:
		return &YAMLFormatter{}
	}
}
