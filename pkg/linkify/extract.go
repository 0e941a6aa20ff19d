package linkify

import (
	"regexp"
	"strings"
)

// linkPattern matches [display](tel:DIGITS) and [display](location:ADDRESS).
// Display text stops at the first "]" and the address at the first ")".
// A tel target needs at least one digit; an empty address still matches and
// is rejected later by Resolve.
var linkPattern = regexp.MustCompile(`\[([^\]]*)\]\((tel:[0-9]+|location:[^)]*)\)`)

const (
	telPrefix      = "tel:"
	locationPrefix = "location:"
)

// Extract scans input left to right and returns its spans in source order.
// Matches whose target Resolve rejects are kept as their literal source text.
// Input without any link yields exactly one plain span holding all of it.
func Extract(input string) []Span {
	matches := linkPattern.FindAllStringSubmatchIndex(input, -1)
	if len(matches) == 0 {
		return []Span{{Text: input, Kind: SpanText}}
	}

	spans := make([]Span, 0, 2*len(matches)+1)
	cursor := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start > cursor {
			spans = append(spans, Span{Text: input[cursor:start], Kind: SpanText})
		}

		display := input[m[2]:m[3]]
		target := input[m[4]:m[5]]
		if action, ok := Resolve(target); ok {
			spans = append(spans, Span{Text: display, Kind: SpanLink, Action: action})
		} else {
			spans = append(spans, Span{Text: input[start:end], Kind: SpanText})
		}
		cursor = end
	}

	if cursor < len(input) {
		spans = append(spans, Span{Text: input[cursor:], Kind: SpanText})
	}
	return spans
}

// Resolve classifies a raw link target. It reports false for targets that
// must not become links: an empty number, a blank address, or an unknown
// scheme.
func Resolve(target string) (Action, bool) {
	switch {
	case strings.HasPrefix(target, telPrefix):
		number := strings.TrimPrefix(target, telPrefix)
		if number == "" {
			return Action{}, false
		}
		return Action{Type: ActionDial, Target: number}, true
	case strings.HasPrefix(target, locationPrefix):
		address := strings.TrimSpace(strings.TrimPrefix(target, locationPrefix))
		if address == "" {
			return Action{}, false
		}
		return Action{Type: ActionShowLocation, Target: address}, true
	}
	return Action{}, false
}

// literalPattern is looser than linkPattern: it also finds tel and location
// syntax that never qualified as a link, such as [x](tel:).
var literalPattern = regexp.MustCompile(`\[[^\]]*\]\((?:tel|location):[^)]*\)`)

// LiteralLinks returns the byte ranges of tel and location link syntax that
// appears in s. Renderers that hand text to a markdown engine use it to
// neutralise degraded links so they stay literal.
func LiteralLinks(s string) [][2]int {
	var ranges [][2]int
	for _, m := range literalPattern.FindAllStringIndex(s, -1) {
		ranges = append(ranges, [2]int{m[0], m[1]})
	}
	return ranges
}
