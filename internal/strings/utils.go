// Package strings holds the small text helpers shared by the CLI and TUI.
package strings

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Ellipsis marks shortened text.
const Ellipsis = "..."

// Preview returns the first n runes of s followed by an ellipsis. The ellipsis
// is appended even when s is shorter than n, as agent cards always show it.
func Preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes) + Ellipsis
}

// Truncate shortens s to at most n runes, ending in an ellipsis when cut.
// If n < 4, uses n = 4 to leave room for the ellipsis.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n < 4 {
		n = 4
	}
	return string(runes[:n-3]) + Ellipsis
}

// FirstLine returns s up to its first newline.
func FirstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// WordWrap wraps text to width cells, breaking on spaces. Existing newlines
// are kept and ANSI styling does not count toward the width.
func WordWrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if lipgloss.Width(line) > width {
			lines[i] = wrapLine(line, width)
		}
	}
	return strings.Join(lines, "\n")
}

func wrapLine(line string, width int) string {
	var b strings.Builder
	col := 0
	for _, word := range strings.Fields(line) {
		w := lipgloss.Width(word)
		switch {
		case col == 0:
		case col+1+w > width:
			b.WriteByte('\n')
			col = 0
		default:
			b.WriteByte(' ')
			col++
		}
		b.WriteString(word)
		col += w
	}
	return b.String()
}
