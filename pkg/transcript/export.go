package transcript

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/jcadam/parley/pkg/actions"
	"github.com/jcadam/parley/pkg/config"
	"github.com/jcadam/parley/pkg/linkify"
)

// Markdown renders the transcript for reading and export. Accepted links
// point at the URI their action opens; degraded link syntax is escaped so a
// markdown engine keeps it literal.
func (t Transcript) Markdown(apps config.AppsConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", escapeMarkdownText(t.Title()))
	fmt.Fprintf(&b, "_Started %s_\n", t.started.Format("2006-01-02 15:04"))

	for _, m := range t.messages {
		b.WriteString("\n")
		switch m.Role {
		case RoleUser:
			b.WriteString("**You:** ")
		case RoleAssistant:
			b.WriteString("**AI:** ")
		case RoleError:
			b.WriteString("> **Error:** ")
		}
		b.WriteString(spansMarkdown(m.Spans, apps))
		b.WriteString("\n")
	}
	return b.String()
}

func spansMarkdown(spans []linkify.Span, apps config.AppsConfig) string {
	var b strings.Builder
	for _, s := range spans {
		if !s.IsLink() {
			b.WriteString(escapeLiteralLinks(s.Text))
			continue
		}
		uri, err := actions.URIFor(s.Action, apps)
		if err != nil {
			b.WriteString(escapeMarkdownText(s.Text))
			continue
		}
		fmt.Fprintf(&b, "[%s](<%s>)", escapeMarkdownText(s.Text), uri)
	}
	return b.String()
}

// escapeLiteralLinks backslash-escapes the brackets of any link syntax left
// in plain text, e.g. a rejected [us](location:).
func escapeLiteralLinks(s string) string {
	ranges := linkify.LiteralLinks(s)
	if len(ranges) == 0 {
		return s
	}
	var b strings.Builder
	prev := 0
	for _, r := range ranges {
		b.WriteString(s[prev:r[0]])
		b.WriteString(escapeMarkdownText(s[r[0]:r[1]]))
		prev = r[1]
	}
	b.WriteString(s[prev:])
	return b.String()
}

var markdownEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)

func escapeMarkdownText(s string) string {
	return markdownEscaper.Replace(s)
}

// ExportHTML converts the transcript to a self-contained HTML document.
func ExportHTML(t Transcript, apps config.AppsConfig) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(t.Markdown(apps)), &buf); err != nil {
		return "", fmt.Errorf("converting transcript to HTML: %w", err)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<style>
  body { max-width: 40em; margin: 2em auto; padding: 0 1em; font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Helvetica, Arial, sans-serif; line-height: 1.6; color: #1a1a1a; }
  a { color: #0086b3; }
  blockquote { border-left: 3px solid #f7768e; margin-left: 0; padding-left: 1em; color: #555; }
</style>
</head>
<body>
%s
</body>
</html>`, html.EscapeString(t.Title()), buf.String()), nil
}
