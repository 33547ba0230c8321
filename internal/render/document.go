// Package render turns chat message text into a small view-model and projects
// it as sanitized HTML or styled terminal text. It also holds the plain
// Writer used for CLI listings.
package render

import (
	"regexp"
	"strings"
)

// NodeKind identifies a Document node.
type NodeKind int

const (
	Text NodeKind = iota
	LineBreak
	InlineCode
	Bold
	CodeBlock
)

func (k NodeKind) String() string {
	switch k {
	case Text:
		return "text"
	case LineBreak:
		return "br"
	case InlineCode:
		return "inline_code"
	case Bold:
		return "bold"
	case CodeBlock:
		return "code_block"
	}
	return "unknown"
}

// Node is one run of a message. Lang is set only on code blocks. Bold nodes
// carry their body as Children (text, line breaks and inline code).
type Node struct {
	Kind     NodeKind
	Text     string
	Lang     string
	Children []Node
}

// Document is a parsed message.
type Document struct {
	Nodes []Node
}

// Language returns the code block language or "plaintext".
func (n Node) Language() string {
	if n.Lang == "" {
		return "plaintext"
	}
	return n.Lang
}

var (
	fenceRE  = regexp.MustCompile("```(\\w+)?\\n([\\s\\S]*?)```")
	inlineRE = regexp.MustCompile("`([^`]+)`")
	boldRE   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
)

// Parse splits content into nodes. Fenced blocks are cut out first and their
// bodies are never touched again; inline code, bold and line breaks are then
// recognised in what remains. Anything unmatched stays literal text.
func Parse(content string) Document {
	var doc Document
	last := 0
	for _, m := range fenceRE.FindAllStringSubmatchIndex(content, -1) {
		doc.inline(content[last:m[0]])
		n := Node{Kind: CodeBlock, Text: strings.TrimSpace(content[m[4]:m[5]])}
		if m[2] >= 0 {
			n.Lang = content[m[2]:m[3]]
		}
		doc.Nodes = append(doc.Nodes, n)
		last = m[1]
	}
	doc.inline(content[last:])
	return doc
}

// inline recognises bold over s with inline code spans masked out, so a bold
// run may contain code but no marker inside a code span can open or close one.
func (d *Document) inline(s string) {
	masked := []byte(s)
	for _, m := range inlineRE.FindAllStringIndex(s, -1) {
		for i := m[0]; i < m[1]; i++ {
			masked[i] = '_'
		}
	}
	last := 0
	for _, m := range boldRE.FindAllSubmatchIndex(masked, -1) {
		d.Nodes = append(d.Nodes, spanNodes(s[last:m[0]])...)
		body := s[m[2]:m[3]]
		d.Nodes = append(d.Nodes, Node{Kind: Bold, Text: body, Children: spanNodes(body)})
		last = m[1]
	}
	d.Nodes = append(d.Nodes, spanNodes(s[last:])...)
}

// spanNodes splits s into inline code and text runs.
func spanNodes(s string) []Node {
	var nodes []Node
	split(s, inlineRE, func(text string) {
		nodes = append(nodes, textNodes(text)...)
	}, func(code string) {
		nodes = append(nodes, Node{Kind: InlineCode, Text: code})
	})
	return nodes
}

func textNodes(s string) []Node {
	var nodes []Node
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			nodes = append(nodes, Node{Kind: LineBreak})
		}
		if line != "" {
			nodes = append(nodes, Node{Kind: Text, Text: line})
		}
	}
	return nodes
}

// split calls between for the gaps around each match of re and match for the
// first capture group of every match.
func split(s string, re *regexp.Regexp, between, match func(string)) {
	last := 0
	for _, m := range re.FindAllStringSubmatchIndex(s, -1) {
		if m[0] > last {
			between(s[last:m[0]])
		}
		match(s[m[2]:m[3]])
		last = m[1]
	}
	if last < len(s) {
		between(s[last:])
	}
}

// Plain returns the document text without any markup, code blocks included.
func (d Document) Plain() string {
	var b strings.Builder
	for _, n := range d.Nodes {
		switch n.Kind {
		case Bold:
			b.WriteString(Document{Nodes: n.Children}.Plain())
		case LineBreak:
			b.WriteByte('\n')
		case CodeBlock:
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
				b.WriteByte('\n')
			}
			b.WriteString(n.Text)
			b.WriteByte('\n')
		default:
			b.WriteString(n.Text)
		}
	}
	return b.String()
}

// Literal wraps content without interpreting any markers. Only newlines
// become line breaks.
func Literal(content string) Document {
	return Document{Nodes: textNodes(content)}
}
