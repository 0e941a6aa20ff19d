package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"

	"github.com/jcadam/parley/pkg/actions"
	"github.com/jcadam/parley/pkg/chat"
	"github.com/jcadam/parley/pkg/config"
	"github.com/jcadam/parley/pkg/linkify"
	"github.com/jcadam/parley/pkg/render"
	"github.com/jcadam/parley/pkg/transcript"
)

type stubSender struct {
	reply string
	err   error
}

func (s stubSender) Send(context.Context, string) (string, error) {
	return s.reply, s.err
}

func testCommand(out *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetContext(context.Background())
	return cmd
}

// --- links ---

func TestWriteSpansJSON(t *testing.T) {
	spans := linkify.Extract("Call [Office](tel:5551234) or visit [us](location:)")
	var b bytes.Buffer
	if err := writeSpansJSON(&b, spans, config.AppsConfig{}); err != nil {
		t.Fatalf("writeSpansJSON: %v", err)
	}

	var got []spanJSON
	if err := json.Unmarshal(b.Bytes(), &got); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, b.String())
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(got))
	}
	if got[0].Kind != "text" || got[0].Action != nil {
		t.Errorf("unexpected first span %+v", got[0])
	}
	link := got[1]
	if link.Kind != "link" || link.Text != "Office" || link.Action == nil {
		t.Fatalf("unexpected link span %+v", link)
	}
	if link.Action.Type != "dial" || link.Action.Target != "5551234" || link.Action.URI != "tel:5551234" {
		t.Errorf("unexpected action %+v", link.Action)
	}
	if got[2].Text != " or visit [us](location:)" {
		t.Errorf("expected degraded link kept literal, got %q", got[2].Text)
	}
}

func TestWriteSpansJSONEmptyInput(t *testing.T) {
	var b bytes.Buffer
	if err := writeSpansJSON(&b, linkify.Extract(""), config.AppsConfig{}); err != nil {
		t.Fatalf("writeSpansJSON: %v", err)
	}
	want := "[\n  {\n    \"text\": \"\",\n    \"kind\": \"text\"\n  }\n]\n"
	if b.String() != want {
		t.Errorf("expected %q, got %q", want, b.String())
	}
}

// --- open ---

func TestOpenTargetDryRun(t *testing.T) {
	var b bytes.Buffer
	if err := openTarget(&b, "location: 1 Main St, Springfield", config.AppsConfig{}, nil); err != nil {
		t.Fatalf("openTarget: %v", err)
	}
	if got := strings.TrimSpace(b.String()); got != "geo:0,0?q=1+Main+St%2C+Springfield" {
		t.Errorf("unexpected URI %q", got)
	}
}

func TestOpenTargetDispatches(t *testing.T) {
	rec := &actions.Recorder{}
	var b bytes.Buffer
	if err := openTarget(&b, "tel:5551234", config.AppsConfig{}, rec); err != nil {
		t.Fatalf("openTarget: %v", err)
	}
	got := rec.Actions()
	if len(got) != 1 || got[0].Number() != "5551234" {
		t.Errorf("unexpected actions %v", got)
	}
	if !strings.Contains(b.String(), "Opened tel:5551234") {
		t.Errorf("unexpected output %q", b.String())
	}
}

func TestOpenTargetRejects(t *testing.T) {
	for _, target := range []string{"tel:", "tel:555-1234", "location:   ", "mailto:a@b.c", "TEL:123"} {
		rec := &actions.Recorder{}
		if err := openTarget(&bytes.Buffer{}, target, config.AppsConfig{}, rec); err == nil {
			t.Errorf("%q: expected error", target)
		}
		if len(rec.Actions()) != 0 {
			t.Errorf("%q: nothing should be dispatched", target)
		}
	}
}

func TestOpenTargetDispatchError(t *testing.T) {
	rec := &actions.Recorder{Err: errors.New("no opener")}
	if err := openTarget(&bytes.Buffer{}, "tel:1", config.AppsConfig{}, rec); err == nil {
		t.Error("expected dispatch error")
	}
}

// --- ask ---

func TestAskPrintsNumberedReply(t *testing.T) {
	var b bytes.Buffer
	opts := render.ChatOptions{Client: stubSender{reply: "Call [Office](tel:5551234)"}}

	tr, err := ask(testCommand(&b), opts, "office?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if tr.Len() != 2 {
		t.Errorf("expected 2 messages, got %d", tr.Len())
	}
	out := ansi.Strip(b.String())
	if !strings.Contains(out, "AI: Call Office [1]") || !strings.Contains(out, "[1] Office  dial 5551234") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestAskOpensLink(t *testing.T) {
	askOpen = 1
	t.Cleanup(func() { askOpen = 0 })

	rec := &actions.Recorder{}
	opts := render.ChatOptions{Client: stubSender{reply: "[HQ](location:Oslo)"}, Dispatcher: rec}
	var b bytes.Buffer
	if _, err := ask(testCommand(&b), opts, "where?"); err != nil {
		t.Fatalf("ask: %v", err)
	}
	if got := rec.Actions(); len(got) != 1 || got[0].Address() != "Oslo" {
		t.Errorf("unexpected actions %v", got)
	}
}

func TestAskFailureDescribed(t *testing.T) {
	opts := render.ChatOptions{Client: stubSender{err: chat.ErrUnreachable}}
	tr, err := ask(testCommand(&bytes.Buffer{}), opts, "hello")
	if err == nil || err.Error() != chat.Describe(chat.ErrUnreachable) {
		t.Errorf("expected described error, got %v", err)
	}
	if last, _ := tr.Last(); last.Role != transcript.RoleError {
		t.Errorf("expected error message recorded, got %q", last.Role)
	}
}

func TestOpenLinkOutOfRange(t *testing.T) {
	links := linkify.Links(linkify.Extract("[A](tel:1)"))
	if err := openLink(&bytes.Buffer{}, links, 2, &actions.Recorder{}); err == nil {
		t.Error("expected out of range error")
	}
}

// --- history ---

func TestListSessions(t *testing.T) {
	store, err := transcript.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	var b bytes.Buffer
	if err := listSessions(&b, store); err != nil {
		t.Fatalf("listSessions: %v", err)
	}
	if !strings.Contains(b.String(), "No saved sessions") {
		t.Errorf("expected empty notice, got %q", b.String())
	}

	tr := transcript.New().
		Apply(transcript.UserSubmitted{Text: "who is my manager", At: time.Now()}).
		Apply(transcript.ResponseReceived{Text: "[John](tel:1)", At: time.Now()})
	if _, err := store.Save(tr, config.AppsConfig{}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	b.Reset()
	if err := listSessions(&b, store); err != nil {
		t.Fatalf("listSessions: %v", err)
	}
	out := b.String()
	if !strings.Contains(out, shortID(tr.ID())) || !strings.Contains(out, "who is my manager") || !strings.Contains(out, "(2 messages)") {
		t.Errorf("unexpected listing %q", out)
	}
}

func TestExportSession(t *testing.T) {
	tr := transcript.New().
		Apply(transcript.UserSubmitted{Text: "office?", At: time.Now()}).
		Apply(transcript.ResponseReceived{Text: "[Office](tel:5551234)", At: time.Now()})

	md, err := exportSession(tr, config.AppsConfig{}, false)
	if err != nil {
		t.Fatalf("exportSession md: %v", err)
	}
	if !strings.Contains(md, "[Office](<tel:5551234>)") {
		t.Errorf("unexpected markdown:\n%s", md)
	}

	html, err := exportSession(tr, config.AppsConfig{}, true)
	if err != nil {
		t.Fatalf("exportSession html: %v", err)
	}
	if !strings.Contains(html, `<a href="tel:5551234">Office</a>`) {
		t.Errorf("unexpected HTML:\n%s", html)
	}
}

// --- init ---

func TestExportFormat(t *testing.T) {
	if asHTML, err := exportFormat(false, true); err != nil || asHTML {
		t.Errorf("default: asHTML=%v err=%v", asHTML, err)
	}
	if asHTML, err := exportFormat(true, true); err != nil || !asHTML {
		t.Errorf("--html: asHTML=%v err=%v", asHTML, err)
	}
	if asHTML, err := exportFormat(true, false); err != nil || !asHTML {
		t.Errorf("--html --md=false: asHTML=%v err=%v", asHTML, err)
	}
	if _, err := exportFormat(false, false); err == nil {
		t.Error("expected error for --md=false without --html")
	}
}

func TestInitDataDir(t *testing.T) {
	dir := t.TempDir()
	var b bytes.Buffer
	if err := initDataDir(&b, dir, "https://chat.example.com", false); err != nil {
		t.Fatalf("initDataDir: %v", err)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.Endpoint != "https://chat.example.com" {
		t.Errorf("unexpected endpoint %q", cfg.Backend.Endpoint)
	}
	if _, err := os.Stat(filepath.Join(dir, "sessions")); err != nil {
		t.Errorf("expected sessions directory: %v", err)
	}
}

func TestInitDataDirKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	if err := initDataDir(&bytes.Buffer{}, dir, "http://one.example", false); err != nil {
		t.Fatalf("initDataDir: %v", err)
	}

	var b bytes.Buffer
	if err := initDataDir(&b, dir, "http://two.example", false); err != nil {
		t.Fatalf("initDataDir: %v", err)
	}
	if !strings.Contains(b.String(), "already exists") {
		t.Errorf("expected existing notice, got %q", b.String())
	}
	cfg, _ := config.Load(dir)
	if cfg.Backend.Endpoint != "http://one.example" {
		t.Errorf("config should not be overwritten, got %q", cfg.Backend.Endpoint)
	}

	if err := initDataDir(&bytes.Buffer{}, dir, "http://two.example", true); err != nil {
		t.Fatalf("initDataDir --force: %v", err)
	}
	cfg, _ = config.Load(dir)
	if cfg.Backend.Endpoint != "http://two.example" {
		t.Errorf("--force should overwrite, got %q", cfg.Backend.Endpoint)
	}
}

func TestInitDataDirInvalidEndpoint(t *testing.T) {
	if err := initDataDir(&bytes.Buffer{}, t.TempDir(), "ftp://nope", false); err == nil {
		t.Error("expected validation error")
	}
}

// --- helpers ---

func TestHyperlinksFor(t *testing.T) {
	var b bytes.Buffer
	if hyperlinksFor("auto", &b) {
		t.Error("auto should be off when not writing to a terminal")
	}
	if !hyperlinksFor("on", &b) {
		t.Error("on should force hyperlinks")
	}
	if hyperlinksFor("off", &b) {
		t.Error("off should disable hyperlinks")
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("unexpected short ID %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("unexpected short ID %q", got)
	}
}

func TestSaveSessionRespectsConfig(t *testing.T) {
	dir := t.TempDir()
	off := false
	e := &env{dataDir: dir, cfg: config.Default()}
	e.cfg.Chat.SaveSessions = &off

	tr := transcript.New().Apply(transcript.UserSubmitted{Text: "hi", At: time.Now()})
	if err := e.saveSession(tr, &bytes.Buffer{}); err != nil {
		t.Fatalf("saveSession: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "sessions")); !os.IsNotExist(err) {
		t.Error("nothing should be written when sessions are disabled")
	}

	on := true
	e.cfg.Chat.SaveSessions = &on
	var b bytes.Buffer
	if err := e.saveSession(tr, &b); err != nil {
		t.Fatalf("saveSession: %v", err)
	}
	if !strings.Contains(b.String(), "pl --resume "+shortID(tr.ID())) {
		t.Errorf("expected resume hint, got %q", b.String())
	}
}
