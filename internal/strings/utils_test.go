package strings

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestPreview(t *testing.T) {
	assert.Equal(t, "short...", Preview("short", 100))
	assert.Equal(t, "...", Preview("", 100))

	long := strings.Repeat("a", 150)
	got := Preview(long, 100)
	assert.Equal(t, strings.Repeat("a", 100)+"...", got)

	assert.Equal(t, "héllo...", Preview("héllo wörld", 5))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"hello", 2, "h..."},
		{"日本語のテキスト", 6, "日本語..."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Truncate(tt.in, tt.n), tt.in)
	}
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "a", FirstLine("a\nb"))
	assert.Equal(t, "abc", FirstLine("abc"))
}

func TestWordWrap(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  string
	}{
		{"short line no wrap", "hello world", 80, "hello world"},
		{"wrap at width", "hello world test", 10, "hello\nworld test"},
		{"preserves newlines", "line1\nline2", 80, "line1\nline2"},
		{"empty string", "", 80, ""},
		{"width zero returns input", "test", 0, "test"},
		{"long word kept whole", "abcdefghijkl xy", 5, "abcdefghijkl\nxy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WordWrap(tt.input, tt.width))
		})
	}
}

func TestWordWrapIgnoresStyling(t *testing.T) {
	bold := lipgloss.NewStyle().Bold(true)
	in := bold.Render("hello") + " world"
	out := WordWrap(in, 11)
	assert.Equal(t, in, out)
}
