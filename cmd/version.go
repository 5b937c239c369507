package cmd

import (
	"cmp"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

type buildInfo struct {
	Version, Commit, Date string
}

var build = buildInfo{Version: "dev", Commit: "none", Date: "unknown"}

// SetVersionInfo records the values stamped by the release build. Empty
// values fall back to the module's VCS settings, then to the defaults.
func SetVersionInfo(version, commit, date string) {
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				commit = cmp.Or(commit, s.Value)
			case "vcs.time":
				date = cmp.Or(date, s.Value)
			}
		}
	}
	build = buildInfo{
		Version: cmp.Or(version, build.Version),
		Commit:  cmp.Or(commit, build.Commit),
		Date:    cmp.Or(date, build.Date),
	}
}

// NewCmdVersion creates the version command.
func NewCmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "cherrypick %s\n", build.Version)
	for _, kv := range [][2]string{
		{"commit", build.Commit},
		{"built", build.Date},
		{"go", fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)},
	} {
		fmt.Fprintf(w, "  %-7s %s\n", kv[0]+":", kv[1])
	}
}
