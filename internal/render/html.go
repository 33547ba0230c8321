package render

import (
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// messagePolicy allows exactly the elements HTML emits.
func messagePolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements("pre", "code", "strong", "br")
		p.AllowAttrs("class").Matching(regexp.MustCompile(`^(inline-code|language-\w+)$`)).OnElements("code")
		policy = p
	})
	return policy
}

// HTML projects doc as markup. Text is escaped before it is wrapped and the
// result is sanitized again, so nothing outside the allow-list can survive.
func HTML(doc Document) string {
	var b strings.Builder
	writeHTML(&b, doc.Nodes)
	return messagePolicy().Sanitize(b.String())
}

func writeHTML(b *strings.Builder, nodes []Node) {
	for _, n := range nodes {
		switch n.Kind {
		case Text:
			b.WriteString(html.EscapeString(n.Text))
		case LineBreak:
			b.WriteString("<br>")
		case InlineCode:
			b.WriteString(`<code class="inline-code">`)
			b.WriteString(escapeBreaks(n.Text))
			b.WriteString(`</code>`)
		case Bold:
			b.WriteString(`<strong>`)
			writeHTML(b, n.Children)
			b.WriteString(`</strong>`)
		case CodeBlock:
			b.WriteString(`<pre><code class="language-`)
			b.WriteString(n.Language())
			b.WriteString(`">`)
			b.WriteString(html.EscapeString(n.Text))
			b.WriteString(`</code></pre>`)
		}
	}
}

// escapeBreaks escapes s and turns its newlines into <br>.
func escapeBreaks(s string) string {
	return strings.ReplaceAll(html.EscapeString(s), "\n", "<br>")
}

// FormatMessage renders message content as safe HTML.
func FormatMessage(content string) string {
	return HTML(Parse(content))
}
