// Package transcript holds chat state as an immutable value. The UI never
// mutates a transcript; it folds events into a new one and re-renders.
package transcript

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jcadam/parley/pkg/linkify"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleError     Role = "error"
)

// Message is one entry in the transcript. Spans are extracted once, when an
// assistant reply arrives; user and error messages hold a single plain span.
type Message struct {
	Role  Role
	Text  string
	Time  time.Time
	Spans []linkify.Span
}

// Event is a state transition applied to a Transcript.
type Event interface {
	apply(t Transcript) Transcript
}

// UserSubmitted records text the user sent.
type UserSubmitted struct {
	Text string
	At   time.Time
}

// ResponseReceived records a successful backend reply.
type ResponseReceived struct {
	Text string
	At   time.Time
}

// ResponseFailed records a request that produced no reply.
type ResponseFailed struct {
	Reason string
	At     time.Time
}

func (e UserSubmitted) apply(t Transcript) Transcript {
	t.messages = appendMessage(t.messages, newMessage(RoleUser, e.Text, e.At))
	t.pending = true
	return t
}

func (e ResponseReceived) apply(t Transcript) Transcript {
	t.messages = appendMessage(t.messages, newMessage(RoleAssistant, e.Text, e.At))
	t.pending = false
	return t
}

func (e ResponseFailed) apply(t Transcript) Transcript {
	t.messages = appendMessage(t.messages, newMessage(RoleError, e.Reason, e.At))
	t.pending = false
	return t
}

func newMessage(role Role, text string, at time.Time) Message {
	if at.IsZero() {
		at = time.Now()
	}
	m := Message{Role: role, Text: text, Time: at}
	if role == RoleAssistant {
		m.Spans = linkify.Extract(text)
	} else {
		m.Spans = []linkify.Span{{Text: text, Kind: linkify.SpanText}}
	}
	return m
}

// appendMessage never writes into the backing array of msgs, so earlier
// transcript values stay untouched.
func appendMessage(msgs []Message, m Message) []Message {
	return append(slices.Clip(msgs), m)
}

// Transcript is an immutable chat history.
type Transcript struct {
	id       string
	started  time.Time
	messages []Message
	pending  bool
}

// New starts an empty transcript with a fresh ID.
func New() Transcript {
	return Transcript{id: uuid.NewString(), started: time.Now()}
}

// Apply returns the transcript that results from e.
func (t Transcript) Apply(e Event) Transcript {
	return e.apply(t)
}

// ID returns the transcript's unique identifier.
func (t Transcript) ID() string { return t.id }

// Started returns when the transcript was created.
func (t Transcript) Started() time.Time { return t.started }

// Pending reports whether a user message is awaiting its reply.
func (t Transcript) Pending() bool { return t.pending }

// Len returns the number of messages.
func (t Transcript) Len() int { return len(t.messages) }

// Messages returns a copy of the messages in order.
func (t Transcript) Messages() []Message {
	return slices.Clone(t.messages)
}

// Last returns the most recent message, if any.
func (t Transcript) Last() (Message, bool) {
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// Links returns every link span of every assistant message in order of
// appearance. Link n in the UI is Links()[n-1].
func (t Transcript) Links() []linkify.Span {
	var links []linkify.Span
	for _, m := range t.messages {
		if m.Role == RoleAssistant {
			links = append(links, linkify.Links(m.Spans)...)
		}
	}
	return links
}

// Title is the first user message, shortened for listings.
func (t Transcript) Title() string {
	for _, m := range t.messages {
		if m.Role != RoleUser {
			continue
		}
		title := strings.Join(strings.Fields(m.Text), " ")
		if r := []rune(title); len(r) > 60 {
			title = string(r[:57]) + "..."
		}
		return title
	}
	return "Untitled chat"
}
