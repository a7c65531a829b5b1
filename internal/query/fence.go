package query

import "strings"

const fence = "```"

// StripCodeFence removes a surrounding markdown code block such as ```json ... ```.
// The closing line is only dropped when the opening one was.
func StripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, fence) {
		return content
	}

	lines := strings.Split(content, "\n")
	lines = lines[1:]
	if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == fence {
		lines = lines[:n-1]
	}
	return strings.Join(lines, "\n")
}
