package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jcadam/parley/pkg/actions"
	"github.com/jcadam/parley/pkg/config"
	"github.com/jcadam/parley/pkg/linkify"
)

const accentColor = "#7AA2F7"

var (
	linkStyle        = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color(accentColor))
	focusedLinkStyle = linkStyle.Bold(true).Reverse(true)
	linkNumberStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#565F89"))
)

// SpanOptions controls how RenderSpans draws links.
type SpanOptions struct {
	// Hyperlinks wraps each link in OSC 8 pointing at its action URI.
	Hyperlinks bool
	Apps       config.AppsConfig

	// FirstLink is the number of the first link in spans. Zero means 1.
	FirstLink int
	// Number appends " [n]" after each link.
	Number bool
	// Focused highlights link n. Zero highlights nothing.
	Focused int
	// Mark, when set, wraps the rendered link n; the TUI uses it to
	// register clickable zones.
	Mark func(n int, rendered string) string
}

// RenderSpans renders spans for the terminal. Plain spans are written
// verbatim and link spans are styled as links.
func RenderSpans(spans []linkify.Span, opts SpanOptions) string {
	n := opts.FirstLink
	if n <= 0 {
		n = 1
	}

	var b strings.Builder
	for _, s := range spans {
		if !s.IsLink() {
			b.WriteString(s.Text)
			continue
		}
		b.WriteString(renderLink(s, n, opts))
		n++
	}
	return b.String()
}

func renderLink(s linkify.Span, n int, opts SpanOptions) string {
	style := linkStyle
	if n == opts.Focused {
		style = focusedLinkStyle
	}
	out := style.Render(linkLabel(s))

	if opts.Hyperlinks {
		if uri, err := actions.URIFor(s.Action, opts.Apps); err == nil {
			out = hyperlink(uri, out)
		}
	}
	if opts.Mark != nil {
		out = opts.Mark(n, out)
	}
	if opts.Number {
		out += linkNumberStyle.Render(fmt.Sprintf(" [%d]", n))
	}
	return out
}

// linkLabel is the visible text of a link. A blank label would leave
// nothing to click, so the link shows its target instead.
func linkLabel(s linkify.Span) string {
	if strings.TrimSpace(s.Text) == "" {
		return s.Action.Target
	}
	return s.Text
}

// LinkList renders a numbered index of links, one per line, starting at
// first.
func LinkList(links []linkify.Span, first int, apps config.AppsConfig) string {
	if first <= 0 {
		first = 1
	}
	var b strings.Builder
	for i, l := range links {
		fmt.Fprintf(&b, "  [%d] %s  %s\n", first+i, linkLabel(l), describeAction(l.Action, apps))
	}
	return b.String()
}

// describeAction names what opening a link does, for status lines and
// link listings.
func describeAction(a linkify.Action, apps config.AppsConfig) string {
	switch a.Type {
	case linkify.ActionDial:
		return "dial " + a.Number()
	case linkify.ActionShowLocation:
		if uri, err := actions.URIFor(a, apps); err == nil && apps.MapsURL != "" {
			return "map " + uri
		}
		return "map " + a.Address()
	}
	return a.String()
}
