package output

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spiffcs/cherrypick/internal/log"
	"github.com/spiffcs/cherrypick/internal/pick"
)

// ReportPath returns where the report for release is written under dir.
// YAML reports keep the historical extensionless name.
func ReportPath(dir, release string, format Format) string {
	name := "cherry_picks_" + release
	switch format {
	case FormatJSON:
		name += ".json"
	case FormatMarkdown:
		name += ".md"
	}
	return filepath.Join(dir, release, name)
}

// WriteReportFile renders r and replaces the report file for release
// atomically. It returns the path written.
func WriteReportFile(dir, release string, r *pick.Report, format Format, opts Options) (string, error) {
	if release == "" {
		return "", fmt.Errorf("release is required to write a report")
	}
	if format == FormatTable {
		return "", fmt.Errorf("table output cannot be written to a report file")
	}

	var buf bytes.Buffer
	if err := NewFormatter(format, opts).Format(r, &buf); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}

	path := ReportPath(dir, release, format)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".cherry_picks-*")
	if err != nil {
		return "", err
	}
	if err := tmp.Chmod(0644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}

	log.Debug("report written", "path", path, "bytes", buf.Len())
	return path, nil
}
