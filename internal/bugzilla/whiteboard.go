package bugzilla

import "strings"

// CherryPickMarker is the devel whiteboard token for bugs awaiting a cherry-pick.
const CherryPickMarker = "needs_cherrypick"

// AddMarker appends the marker to a whiteboard. ok is false when the
// marker is already present.
func AddMarker(whiteboard string) (string, bool) {
	if strings.Contains(whiteboard, CherryPickMarker) {
		return whiteboard, false
	}
	return strings.TrimSpace(whiteboard + " " + CherryPickMarker), true
}

// RemoveMarker drops the marker from a whiteboard. ok is false when the
// marker was not present.
func RemoveMarker(whiteboard string) (string, bool) {
	if !strings.Contains(whiteboard, CherryPickMarker) {
		return whiteboard, false
	}
	return strings.Join(strings.Fields(strings.Replace(whiteboard, CherryPickMarker, "", 1)), " "), true
}
