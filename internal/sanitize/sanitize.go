// Package sanitize normalises extracted text before it is returned to callers.
package sanitize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Text cleans s without changing its line structure: line endings become
// "\n", invalid UTF-8 and control characters are dropped, runs of spaces
// and tabs collapse to one space, trailing blanks are trimmed and at most one
// empty line is kept between paragraphs.
func Text(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		line = cleanLine(line)
		if line == "" {
			blank++
			if blank > 1 || len(out) == 0 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func cleanLine(line string) string {
	var sb strings.Builder
	sb.Grow(len(line))
	space := false
	for _, r := range line {
		switch {
		case r == ' ' || r == '\t' || r == '\u00a0':
			space = true
		case unicode.IsControl(r) || r == '\ufeff' || r == '\u200b':
			// dropped
		default:
			if space && sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			space = false
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
