package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spiffcs/cherrypick/internal/tui"
)

// tuiFlag is the pflag.Value behind --tui. It writes through to
// Options.TUI, where nil means auto-detect.
type tuiFlag struct {
	opts *Options
}

func newTUIFlag(opts *Options) *tuiFlag {
	return &tuiFlag{opts: opts}
}

var tuiAliases = map[string]string{"yes": "true", "on": "true", "no": "false", "off": "false"}

func (f *tuiFlag) Set(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "auto" {
		f.opts.TUI = nil
		return nil
	}
	if alias, ok := tuiAliases[s]; ok {
		s = alias
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid value %q: use true, false, or auto", s)
	}
	f.opts.TUI = &v
	return nil
}

func (f *tuiFlag) String() string {
	if f.opts.TUI == nil {
		return "auto"
	}
	return strconv.FormatBool(*f.opts.TUI)
}

func (f *tuiFlag) Type() string { return "bool" }

// IsBoolFlag lets a bare --tui mean --tui=true.
func (f *tuiFlag) IsBoolFlag() bool { return true }

// shouldUseTUI reports whether a run renders the progress display. Any
// verbose or JSON logging turns it off.
func shouldUseTUI(opts *Options) bool {
	switch {
	case opts.Verbosity > 0 || opts.LogJSON:
		return false
	case opts.TUI != nil:
		return *opts.TUI
	default:
		return tui.ShouldUseTUI()
	}
}
