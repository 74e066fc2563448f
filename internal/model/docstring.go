package model

import "strings"

// NormalizeDocstring trims raw and removes the indentation shared by every
// non-blank line after the first. Relative indentation is kept, blank lines
// become empty and the first line is left as written. Applying it twice
// yields the same text.
func NormalizeDocstring(raw string) string {
	text := strings.TrimSpace(strings.ReplaceAll(raw, "\r\n", "\n"))
	if text == "" {
		return ""
	}

	lines := strings.Split(text, "\n")
	margin := -1
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		width := len(line) - len(strings.TrimLeft(line, " \t"))
		if margin < 0 || width < margin {
			margin = width
		}
	}
	margin = max(margin, 0)

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			lines[i] = ""
			continue
		}
		lines[i] = lines[i][margin:]
	}
	return strings.Join(lines, "\n")
}
