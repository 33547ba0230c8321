package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	strs "github.com/joss/agentchat/internal/strings"
)

// Styles controls the terminal projection.
type Styles struct {
	Text       lipgloss.Style
	Bold       lipgloss.Style
	InlineCode lipgloss.Style
	CodeBlock  lipgloss.Style
	CodeLang   lipgloss.Style
}

// DefaultStyles returns the palette used by the TUI.
func DefaultStyles() Styles {
	return Styles{
		Text:       lipgloss.NewStyle(),
		Bold:       lipgloss.NewStyle().Bold(true),
		InlineCode: lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		CodeBlock: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5E7EB")).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#4B5563")).
			PaddingLeft(1),
		CodeLang: lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true),
	}
}

// PlainStyles renders without any styling.
func PlainStyles() Styles {
	s := lipgloss.NewStyle()
	return Styles{Text: s, Bold: s, InlineCode: s, CodeBlock: s, CodeLang: s}
}

// Terminal projects doc as styled text wrapped to width cells. Code blocks
// keep their own line breaks. A width of 0 disables wrapping.
func Terminal(doc Document, st Styles, width int) string {
	var out []string
	var para strings.Builder

	flush := func() {
		if para.Len() == 0 {
			return
		}
		out = append(out, strs.WordWrap(para.String(), width))
		para.Reset()
	}

	for _, n := range doc.Nodes {
		switch n.Kind {
		case Text:
			para.WriteString(st.Text.Render(n.Text))
		case LineBreak:
			para.WriteByte('\n')
		case InlineCode:
			para.WriteString(st.InlineCode.Render(n.Text))
		case Bold:
			for _, c := range n.Children {
				switch c.Kind {
				case Text:
					para.WriteString(st.Bold.Render(c.Text))
				case LineBreak:
					para.WriteByte('\n')
				case InlineCode:
					para.WriteString(st.Bold.Inherit(st.InlineCode).Render(c.Text))
				}
			}
		case CodeBlock:
			flush()
			block := n.Text
			if n.Lang != "" {
				block = st.CodeLang.Render(n.Lang) + "\n" + block
			}
			out = append(out, st.CodeBlock.Render(block))
		}
	}
	flush()
	return strings.Join(out, "\n")
}
