package format

import (
	"fmt"
	"time"
)

const day = 24 * time.Hour

// FormatAge formats a duration as a compact age: "now", "5m", "2h", "3d",
// "2w", "3mo".
func FormatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < day:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*day:
		return fmt.Sprintf("%dd", int(d/day))
	case d < 30*day:
		return fmt.Sprintf("%dw", int(d/(7*day)))
	default:
		return fmt.Sprintf("%dmo", int(d/(30*day)))
	}
}

// Closed renders an issue close time relative to now. Issues that were
// never closed render as "open".
func Closed(closed *time.Time, now time.Time) string {
	if closed == nil {
		return "open"
	}
	return Ago(now.Sub(*closed))
}

// Ago is FormatAge with an " ago" suffix, except for "now".
func Ago(d time.Duration) string {
	age := FormatAge(d)
	if age == "now" {
		return age
	}
	return age + " ago"
}
