package release

import "strings"

// normalizeMessage collapses all whitespace runs so that comments copied
// through a tracker (CRLF line endings, wrapped lines) still match the
// original commit message.
func normalizeMessage(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// messageIndex holds normalized commit messages from a release branch.
type messageIndex struct {
	messages []string
}

func (m *messageIndex) add(message string) {
	if n := normalizeMessage(message); n != "" {
		m.messages = append(m.messages, n)
	}
}

// contains reports whether any indexed message contains the comment.
// A blank comment never matches.
func (m *messageIndex) contains(comment string) bool {
	needle := normalizeMessage(comment)
	if needle == "" {
		return false
	}
	for _, msg := range m.messages {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}

func (m *messageIndex) len() int {
	return len(m.messages)
}
