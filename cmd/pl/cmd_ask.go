package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jcadam/parley/pkg/actions"
	"github.com/jcadam/parley/pkg/chat"
	"github.com/jcadam/parley/pkg/linkify"
	"github.com/jcadam/parley/pkg/render"
	"github.com/jcadam/parley/pkg/transcript"
)

var askOpen int

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().IntVar(&askOpen, "open", 0, "open link `N` of the reply once it arrives")
}

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Send one message and print the reply",
	Long:  "Sends a single message to the backend and prints the reply with its links numbered. Use --open N to hand link N to the dialer or map app.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		message := strings.Join(args, " ")
		opts := e.chatOptions(cmd.OutOrStdout())

		tr, err := ask(cmd, opts, message)
		if saveErr := e.saveSession(tr, cmd.ErrOrStderr()); saveErr != nil && err == nil {
			err = saveErr
		}
		return err
	},
}

// ask sends message, prints the reply, and optionally opens a link.
// The transcript is returned even on failure so it can be saved.
func ask(cmd *cobra.Command, opts render.ChatOptions, message string) (transcript.Transcript, error) {
	out := cmd.OutOrStdout()
	tr := transcript.New().Apply(transcript.UserSubmitted{Text: message, At: time.Now()})

	reply, err := opts.Client.Send(cmd.Context(), message)
	if err != nil {
		opts.Debug.Printf("request failed: %v", err)
		tr = tr.Apply(transcript.ResponseFailed{Reason: chat.Describe(err), At: time.Now()})
		return tr, errors.New(chat.Describe(err))
	}
	tr = tr.Apply(transcript.ResponseReceived{Text: reply, At: time.Now()})

	last, _ := tr.Last()
	opts.Debug.Spans(last.Spans)
	_, aiPrefix := opts.Chat.Prefixes()
	render.WriteReply(out, aiPrefix, last.Spans, render.SpanOptions{
		Hyperlinks: opts.Hyperlinks,
		Apps:       opts.Apps,
	})

	if askOpen > 0 {
		return tr, openLink(out, tr.Links(), askOpen, opts.Dispatcher)
	}
	return tr, nil
}

// openLink dispatches link n (1-based) of links.
func openLink(w io.Writer, links []linkify.Span, n int, d actions.Dispatcher) error {
	if n < 1 || n > len(links) {
		return fmt.Errorf("no link %d (reply has %d)", n, len(links))
	}
	a := links[n-1].Action
	if err := d.Dispatch(a); err != nil {
		return fmt.Errorf("opening link %d: %w", n, err)
	}
	fmt.Fprintf(w, "  Opened %s\n", a)
	return nil
}
