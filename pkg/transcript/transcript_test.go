package transcript

import (
	"strings"
	"testing"
	"time"

	"github.com/jcadam/parley/pkg/linkify"
)

var t0 = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func TestNewTranscriptEmpty(t *testing.T) {
	tr := New()
	if tr.ID() == "" {
		t.Error("expected an ID")
	}
	if tr.Len() != 0 || tr.Pending() {
		t.Errorf("expected empty, idle transcript")
	}
	if _, ok := tr.Last(); ok {
		t.Error("expected no last message")
	}
	if tr.Title() != "Untitled chat" {
		t.Errorf("unexpected title %q", tr.Title())
	}
	if New().ID() == tr.ID() {
		t.Error("expected distinct IDs")
	}
}

func TestApplyConversation(t *testing.T) {
	tr := New()
	tr = tr.Apply(UserSubmitted{Text: "who is my manager", At: t0})
	if !tr.Pending() {
		t.Fatal("expected pending after user message")
	}

	tr = tr.Apply(ResponseReceived{Text: "name: John Smith | tel: [12345678901](tel:12345678901)", At: t0.Add(time.Second)})
	if tr.Pending() {
		t.Fatal("expected idle after reply")
	}
	if tr.Len() != 2 {
		t.Fatalf("expected 2 messages, got %d", tr.Len())
	}

	last, _ := tr.Last()
	if last.Role != RoleAssistant {
		t.Errorf("expected assistant message, got %q", last.Role)
	}
	if len(last.Spans) != 2 || !last.Spans[1].IsLink() {
		t.Fatalf("expected reply spans extracted, got %+v", last.Spans)
	}
	if last.Spans[1].Action.Number() != "12345678901" {
		t.Errorf("unexpected number %q", last.Spans[1].Action.Number())
	}
}

func TestApplyFailure(t *testing.T) {
	tr := New().
		Apply(UserSubmitted{Text: "hello", At: t0}).
		Apply(ResponseFailed{Reason: "Server unreachable", At: t0})
	if tr.Pending() {
		t.Error("failure should clear pending")
	}
	last, _ := tr.Last()
	if last.Role != RoleError || last.Text != "Server unreachable" {
		t.Errorf("unexpected last message %+v", last)
	}
}

func TestApplyDoesNotMutateEarlierValues(t *testing.T) {
	base := New().Apply(UserSubmitted{Text: "one", At: t0})
	a := base.Apply(ResponseReceived{Text: "reply a", At: t0})
	b := base.Apply(ResponseFailed{Reason: "reply b", At: t0})

	if base.Len() != 1 || !base.Pending() {
		t.Errorf("base changed: len=%d pending=%v", base.Len(), base.Pending())
	}
	if la, _ := a.Last(); la.Text != "reply a" {
		t.Errorf("branch a overwritten: %q", la.Text)
	}
	if lb, _ := b.Last(); lb.Text != "reply b" {
		t.Errorf("branch b overwritten: %q", lb.Text)
	}
}

func TestMessagesReturnsCopy(t *testing.T) {
	tr := New().Apply(UserSubmitted{Text: "hi", At: t0})
	msgs := tr.Messages()
	msgs[0].Text = "changed"
	if m, _ := tr.Last(); m.Text != "hi" {
		t.Errorf("transcript mutated through Messages(): %q", m.Text)
	}
}

func TestUserTextIsNeverLinkified(t *testing.T) {
	tr := New().Apply(UserSubmitted{Text: "[x](tel:123)", At: t0})
	m, _ := tr.Last()
	if len(m.Spans) != 1 || m.Spans[0].IsLink() {
		t.Errorf("expected a single plain span, got %+v", m.Spans)
	}
	if len(tr.Links()) != 0 {
		t.Error("user messages should not contribute links")
	}
}

func TestLinksAcrossReplies(t *testing.T) {
	tr := New().
		Apply(UserSubmitted{Text: "q1", At: t0}).
		Apply(ResponseReceived{Text: "[A](tel:1) and [B](location:Oslo)", At: t0}).
		Apply(UserSubmitted{Text: "q2", At: t0}).
		Apply(ResponseReceived{Text: "[C](tel:3) [bad](location:)", At: t0})

	links := tr.Links()
	if len(links) != 3 {
		t.Fatalf("expected 3 links, got %d", len(links))
	}
	want := []string{"A", "B", "C"}
	for i, l := range links {
		if l.Text != want[i] {
			t.Errorf("link %d: expected %q, got %q", i+1, want[i], l.Text)
		}
	}
	if links[1].Action.Type != linkify.ActionShowLocation {
		t.Errorf("expected location action, got %q", links[1].Action.Type)
	}
}

func TestZeroTimeDefaultsToNow(t *testing.T) {
	before := time.Now()
	m, _ := New().Apply(UserSubmitted{Text: "hi"}).Last()
	if m.Time.Before(before) {
		t.Errorf("expected timestamp set, got %v", m.Time)
	}
}

func TestTitleShortened(t *testing.T) {
	long := strings.Repeat("word ", 30)
	tr := New().Apply(UserSubmitted{Text: long, At: t0})
	title := tr.Title()
	if len([]rune(title)) != 60 || !strings.HasSuffix(title, "...") {
		t.Errorf("unexpected title %q", title)
	}
}
