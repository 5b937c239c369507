// Package format provides text helpers for terminal table output.
package format

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/spiffcs/cherrypick/internal/constants"
)

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

const (
	ellipsis  = "..."
	ansiReset = "\x1b[0m"
)

// StripAnsi removes ANSI escape sequences from a string.
func StripAnsi(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// DisplayWidth returns the number of terminal columns s occupies once color
// codes are removed. East Asian wide characters count as two columns.
func DisplayWidth(s string) int {
	return runewidth.StringWidth(StripAnsi(s))
}

// TruncateToWidth shortens s to at most maxWidth columns, ending it with
// "..." when anything was cut. Color codes are kept and, if any were
// emitted, closed with a reset. It returns the result and its visible width.
func TruncateToWidth(s string, maxWidth int) (string, int) {
	if w := DisplayWidth(s); w <= maxWidth {
		return s, w
	}
	if maxWidth <= constants.TruncationSuffixWidth {
		return ellipsis[:max(maxWidth, 0)], max(maxWidth, 0)
	}

	budget := maxWidth - constants.TruncationSuffixWidth
	codes := ansiRegex.FindAllStringIndex(s, -1)

	var b strings.Builder
	width, pos, colored := 0, 0, false
	for pos < len(s) {
		if len(codes) > 0 && pos == codes[0][0] {
			b.WriteString(s[codes[0][0]:codes[0][1]])
			pos = codes[0][1]
			codes = codes[1:]
			colored = true
			continue
		}

		r, size := utf8.DecodeRuneInString(s[pos:])
		rw := runewidth.RuneWidth(r)
		if width+rw > budget {
			break
		}
		b.WriteString(s[pos : pos+size])
		width += rw
		pos += size
	}

	b.WriteString(ellipsis)
	if colored {
		b.WriteString(ansiReset)
	}
	return b.String(), width + constants.TruncationSuffixWidth
}

// PadRight pads s with spaces from visibleWidth up to targetWidth.
func PadRight(s string, visibleWidth, targetWidth int) string {
	if visibleWidth >= targetWidth {
		return s
	}
	return s + strings.Repeat(" ", targetWidth-visibleWidth)
}

// Fit truncates or pads s so it occupies exactly width columns.
func Fit(s string, width int) string {
	out, w := TruncateToWidth(s, width)
	return PadRight(out, w, width)
}
