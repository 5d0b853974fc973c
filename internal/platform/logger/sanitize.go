package logger

import "strings"

// maxFieldLen bounds sanitized values so a single oversized upload field
// cannot bloat a log record.
const maxFieldLen = 256

// Sanitize makes a user-supplied string safe to embed in a log record.
// Control characters, including CR and LF, become spaces so a crafted value
// cannot forge additional log lines or corrupt terminal output, and the
// result is truncated to maxFieldLen runes.
func Sanitize(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, s)

	runes := []rune(cleaned)
	if len(runes) <= maxFieldLen {
		return cleaned
	}
	return string(runes[:maxFieldLen]) + "..."
}
