// Package linkify splits chat replies into plain-text and actionable-link
// spans. Replies may embed links of the form [label](tel:NUMBER) or
// [label](location:ADDRESS); each accepted link carries a typed Action that
// a dispatcher can hand to the operating system.
//
// Everything here is pure: no I/O, no shared state. Extract may be called
// from any goroutine, including a UI render loop.
package linkify

import "strings"

// SpanKind discriminates plain text from actionable links.
type SpanKind int

const (
	SpanText SpanKind = iota
	SpanLink
)

func (k SpanKind) String() string {
	if k == SpanLink {
		return "link"
	}
	return "text"
}

// ActionType identifies what activating a link does.
type ActionType string

const (
	ActionDial         ActionType = "dial"
	ActionShowLocation ActionType = "location"
)

// Action is a validated description of a platform action.
type Action struct {
	Type   ActionType
	Target string // digits for dial, trimmed address for location
}

// Number returns the phone number of a dial action, or "".
func (a Action) Number() string {
	if a.Type != ActionDial {
		return ""
	}
	return a.Target
}

// Address returns the unencoded address of a location action, or "".
func (a Action) Address() string {
	if a.Type != ActionShowLocation {
		return ""
	}
	return a.Target
}

func (a Action) String() string {
	return string(a.Type) + ":" + a.Target
}

// Span is a contiguous piece of rendered output. Action is only set when
// Kind is SpanLink.
type Span struct {
	Text   string
	Kind   SpanKind
	Action Action
}

// IsLink reports whether the span is tappable.
func (s Span) IsLink() bool { return s.Kind == SpanLink }

// Text concatenates the display text of all spans.
func Text(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Links returns only the link spans, in source order.
func Links(spans []Span) []Span {
	var links []Span
	for _, s := range spans {
		if s.IsLink() {
			links = append(links, s)
		}
	}
	return links
}
