// Package debug provides the --debug trace output for Parley. All types are
// nil-safe: a nil *Logger is a no-op, and a Transport with a nil logger
// passes requests straight through.
package debug

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jcadam/parley/pkg/linkify"
)

// maxBodyDisplay caps how much of a chat body is echoed.
const maxBodyDisplay = 4 * 1024

// Logger writes tagged debug lines to a writer.
type Logger struct {
	w   io.Writer
	tag string
}

// NewLogger creates a Logger that writes to w.
func NewLogger(w io.Writer) *Logger {
	return &Logger{w: w}
}

// Named returns a logger whose lines carry the given component tag.
// Named on a nil logger returns nil.
func (l *Logger) Named(tag string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{w: l.w, tag: tag}
}

// Printf writes a formatted debug line.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil {
		return
	}
	prefix := "[debug] "
	if l.tag != "" {
		prefix = "[debug] " + l.tag + ": "
	}
	fmt.Fprintf(l.w, prefix+format+"\n", args...)
}

// Section writes a visual separator.
func (l *Logger) Section(label string) {
	if l == nil {
		return
	}
	fmt.Fprintf(l.w, "[debug] ─── %s ───\n", label)
}

// Spans traces the result of a link extraction, one line per span.
func (l *Logger) Spans(spans []linkify.Span) {
	if l == nil {
		return
	}
	links := 0
	for i, s := range spans {
		if s.IsLink() {
			links++
			l.Printf("  #%d link %q -> %s", i, s.Text, s.Action)
			continue
		}
		l.Printf("  #%d text %q", i, s.Text)
	}
	l.Printf("%d span(s), %d link(s)", len(spans), links)
}

// Transport is an http.RoundTripper that traces chat requests and replies
// before delegating to a base transport.
type Transport struct {
	Base http.RoundTripper
	Log  *Logger
}

// NewTransport wraps base with debug tracing. A nil base means
// http.DefaultTransport.
func NewTransport(base http.RoundTripper, dbg *Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, Log: dbg}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Log == nil {
		return t.Base.RoundTrip(req)
	}

	t.traceRequest(req)

	start := time.Now()
	resp, err := t.Base.RoundTrip(req)
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		t.Log.Printf("← error after %s: %v", elapsed, err)
		return resp, err
	}

	t.traceResponse(resp, elapsed)
	return resp, nil
}

func (t *Transport) traceRequest(req *http.Request) {
	t.Log.Printf("→ %s %s", req.Method, req.URL.String())
	if auth := req.Header.Get("Authorization"); auth != "" {
		scheme, _, found := strings.Cut(auth, " ")
		if found {
			t.Log.Printf("  Authorization: %s <redacted>", scheme)
		} else {
			t.Log.Printf("  Authorization: <redacted>")
		}
	}

	if req.Body == nil || req.Body == http.NoBody {
		return
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		t.Log.Printf("  (request body unreadable: %v)", err)
		req.Body = io.NopCloser(bytes.NewReader(nil))
		return
	}
	req.Body = io.NopCloser(bytes.NewReader(body))
	if len(body) > 0 {
		t.Log.Printf("  Request body (%d bytes):", len(body))
		t.traceBody(body)
	}
}

func (t *Transport) traceResponse(resp *http.Response, elapsed time.Duration) {
	t.Log.Printf("← %d %s (%s)", resp.StatusCode, http.StatusText(resp.StatusCode), elapsed)
	if resp.Body == nil {
		return
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Log.Printf("  (response body unreadable: %v)", err)
		resp.Body = io.NopCloser(bytes.NewReader(nil))
		return
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	if len(body) == 0 {
		return
	}

	t.Log.Printf("  Response body (%d bytes):", len(body))
	if len(body) > maxBodyDisplay {
		t.traceBody(body[:maxBodyDisplay])
		t.Log.Printf("  ... truncated at %d bytes", maxBodyDisplay)
		return
	}
	t.traceBody(body)
}

func (t *Transport) traceBody(data []byte) {
	for _, line := range strings.Split(prettyJSON(data), "\n") {
		t.Log.Printf("  %s", line)
	}
}

// prettyJSON indents JSON and returns anything else unchanged.
func prettyJSON(data []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return string(data)
	}
	return buf.String()
}
