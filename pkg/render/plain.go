package render

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jcadam/parley/pkg/actions"
	"github.com/jcadam/parley/pkg/chat"
	"github.com/jcadam/parley/pkg/linkify"
	"github.com/jcadam/parley/pkg/transcript"
)

// WriteReply prints a reply with numbered links followed by the link index.
// opts.FirstLink numbers the first link.
func WriteReply(w io.Writer, prefix string, spans []linkify.Span, opts SpanOptions) {
	opts.Number = true
	fmt.Fprintf(w, "%s%s\n", prefix, RenderSpans(spans, opts))
	if links := linkify.Links(spans); len(links) > 0 {
		fmt.Fprint(w, LinkList(links, opts.FirstLink, opts.Apps))
	}
}

// plainSession is the line-oriented chat used when stdin is not a terminal.
type plainSession struct {
	ctx  context.Context
	out  io.Writer
	opts ChatOptions
	tr   transcript.Transcript
}

// RunPlain runs a line-based chat on in and out until EOF or "quit", and
// returns the final transcript.
func RunPlain(ctx context.Context, in io.Reader, out io.Writer, opts ChatOptions) (transcript.Transcript, error) {
	s := &plainSession{ctx: ctx, out: out, opts: opts, tr: opts.startTranscript()}
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "  Type a message. \"links\" lists links, \"open N\" opens one, \"copy N\" copies it, \"quit\" leaves.")
	if opts.Initial != "" {
		s.ask(opts.Initial)
	}

	for ctx.Err() == nil {
		fmt.Fprint(out, "> ")
		line, err := readPlainLine(reader)
		if err != nil {
			break
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		fields := strings.Fields(input)
		switch strings.ToLower(fields[0]) {
		case "quit", "exit":
			return s.tr, nil
		case "links":
			if len(fields) == 1 {
				s.listLinks()
				continue
			}
		case "open", "copy":
			if len(fields) == 2 {
				if n, err := strconv.Atoi(fields[1]); err == nil {
					s.linkCommand(strings.ToLower(fields[0]), n)
					continue
				}
			}
		}
		s.ask(input)
	}
	return s.tr, nil
}

func (s *plainSession) ask(text string) {
	_, aiPrefix := s.opts.Chat.Prefixes()
	first := len(s.tr.Links()) + 1

	s.tr = s.tr.Apply(transcript.UserSubmitted{Text: text, At: time.Now()})
	fmt.Fprintf(s.out, "%sThinking...\n", aiPrefix)

	reply, err := s.opts.Client.Send(s.ctx, text)
	if err != nil {
		s.opts.Debug.Printf("request failed: %v", err)
		s.tr = s.tr.Apply(transcript.ResponseFailed{Reason: chat.Describe(err), At: time.Now()})
		fmt.Fprintf(s.out, "Error: %s\n", chat.Describe(err))
		return
	}

	s.tr = s.tr.Apply(transcript.ResponseReceived{Text: reply, At: time.Now()})
	last, _ := s.tr.Last()
	s.opts.Debug.Spans(last.Spans)
	WriteReply(s.out, aiPrefix, last.Spans, SpanOptions{
		Hyperlinks: s.opts.Hyperlinks,
		Apps:       s.opts.Apps,
		FirstLink:  first,
	})
}

func (s *plainSession) listLinks() {
	links := s.tr.Links()
	if len(links) == 0 {
		fmt.Fprintln(s.out, "  No links yet.")
		return
	}
	fmt.Fprint(s.out, LinkList(links, 1, s.opts.Apps))
}

func (s *plainSession) linkCommand(cmd string, n int) {
	links := s.tr.Links()
	if n < 1 || n > len(links) {
		fmt.Fprintf(s.out, "  No link %d (have %d).\n", n, len(links))
		return
	}
	a := links[n-1].Action

	if cmd == "copy" {
		text := actions.ClipboardText(a)
		if err := s.opts.copyFunc()(text); err != nil {
			fmt.Fprintf(s.out, "  Error: clipboard: %v\n", err)
			return
		}
		fmt.Fprintf(s.out, "  Copied %s\n", text)
		return
	}

	if s.opts.Dispatcher == nil {
		return
	}
	s.opts.Debug.Printf("dispatch link %d %s", n, a)
	if err := s.opts.Dispatcher.Dispatch(a); err != nil {
		fmt.Fprintf(s.out, "  Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "  Opened %s\n", describeAction(a, s.opts.Apps))
}

// readPlainLine reads one line without its terminator. A final line
// without a newline is still returned.
func readPlainLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\n\r"), nil
}
