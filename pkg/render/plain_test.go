package render

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/jcadam/parley/pkg/actions"
	"github.com/jcadam/parley/pkg/chat"
	"github.com/jcadam/parley/pkg/linkify"
)

func runPlain(t *testing.T, input string, opts ChatOptions) string {
	t.Helper()
	var out bytes.Buffer
	if _, err := RunPlain(context.Background(), strings.NewReader(input), &out, opts); err != nil {
		t.Fatalf("RunPlain: %v", err)
	}
	return ansi.Strip(out.String())
}

func TestPlainAskAndOpen(t *testing.T) {
	f := &fakeSender{replies: map[string]string{
		"contact?": "name: John Smith | tel: [12345678901](tel:12345678901)",
	}}
	rec := &actions.Recorder{}
	out := runPlain(t, "contact?\nopen 1\nquit\n", ChatOptions{Client: f, Dispatcher: rec})

	if !strings.Contains(out, "AI: Thinking...") {
		t.Errorf("expected thinking placeholder:\n%s", out)
	}
	if !strings.Contains(out, "AI: name: John Smith | tel: 12345678901 [1]") {
		t.Errorf("expected numbered reply:\n%s", out)
	}
	if !strings.Contains(out, "  [1] 12345678901  dial 12345678901") {
		t.Errorf("expected link index:\n%s", out)
	}
	if !strings.Contains(out, "Opened dial 12345678901") {
		t.Errorf("expected open confirmation:\n%s", out)
	}
	got := rec.Actions()
	if len(got) != 1 || got[0].Number() != "12345678901" {
		t.Errorf("unexpected dispatched actions %v", got)
	}
}

func TestPlainLinkNumbersContinue(t *testing.T) {
	f := &fakeSender{replies: map[string]string{
		"one": "[A](tel:1)",
		"two": "[B](location:Oslo)",
	}}
	out := runPlain(t, "one\ntwo\nlinks\n", ChatOptions{Client: f})
	if !strings.Contains(out, "AI: B [2]") {
		t.Errorf("expected second reply numbered from 2:\n%s", out)
	}
	if !strings.Contains(out, "  [1] A  dial 1\n  [2] B  map Oslo") {
		t.Errorf("expected full link listing:\n%s", out)
	}
}

func TestPlainDegradedLinkStaysLiteral(t *testing.T) {
	f := &fakeSender{replies: map[string]string{"hq": "Call [Office](tel:5551234) or visit [us](location:)"}}
	out := runPlain(t, "hq\n", ChatOptions{Client: f})
	if !strings.Contains(out, "AI: Call Office [1] or visit [us](location:)") {
		t.Errorf("unexpected reply:\n%s", out)
	}
}

func TestPlainErrorWording(t *testing.T) {
	f := &fakeSender{err: chat.ErrUnreachable}
	out := runPlain(t, "hello\n", ChatOptions{Client: f})
	if !strings.Contains(out, "Error: "+chat.Describe(chat.ErrUnreachable)) {
		t.Errorf("expected unreachable wording:\n%s", out)
	}
}

func TestPlainInitialMessage(t *testing.T) {
	f := &fakeSender{replies: map[string]string{"hi": "hello"}}
	var out bytes.Buffer
	tr, err := RunPlain(context.Background(), strings.NewReader(""), &out, ChatOptions{Client: f, Initial: "hi"})
	if err != nil {
		t.Fatalf("RunPlain: %v", err)
	}
	if tr.Len() != 2 {
		t.Errorf("expected 2 messages, got %d", tr.Len())
	}
	if len(f.sent) != 1 || f.sent[0] != "hi" {
		t.Errorf("expected initial message sent, got %v", f.sent)
	}
}

func TestPlainOpenOutOfRange(t *testing.T) {
	out := runPlain(t, "open 3\n", ChatOptions{Client: &fakeSender{}, Dispatcher: &actions.Recorder{}})
	if !strings.Contains(out, "No link 3 (have 0).") {
		t.Errorf("expected range error:\n%s", out)
	}
}

func TestPlainCopy(t *testing.T) {
	f := &fakeSender{replies: map[string]string{"hq": "[HQ](location: Main St)"}}
	var copied string
	out := runPlain(t, "hq\ncopy 1\n", ChatOptions{Client: f, Copy: func(s string) error { copied = s; return nil }})
	if copied != "Main St" {
		t.Errorf("expected address copied, got %q", copied)
	}
	if !strings.Contains(out, "Copied Main St") {
		t.Errorf("expected copy confirmation:\n%s", out)
	}
}

func TestPlainCommandWordsAsMessages(t *testing.T) {
	f := &fakeSender{}
	runPlain(t, "open the door\nlinks please\n", ChatOptions{Client: f})
	if len(f.sent) != 2 {
		t.Errorf("expected both lines sent as messages, got %v", f.sent)
	}
}

func TestWriteReply(t *testing.T) {
	var b bytes.Buffer
	WriteReply(&b, "AI: ", linkify.Extract("no links"), SpanOptions{})
	if got := ansi.Strip(b.String()); got != "AI: no links\n" {
		t.Errorf("unexpected output %q", got)
	}
}
