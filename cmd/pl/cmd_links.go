package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jcadam/parley/pkg/actions"
	"github.com/jcadam/parley/pkg/config"
	"github.com/jcadam/parley/pkg/linkify"
	"github.com/jcadam/parley/pkg/render"
)

var linksJSON bool

func init() {
	rootCmd.AddCommand(linksCmd)
	linksCmd.Flags().BoolVar(&linksJSON, "json", false, "print spans as JSON")
}

var linksCmd = &cobra.Command{
	Use:   "links [file]",
	Short: "Extract phone and map links from text",
	Long:  "Reads a reply from a file (or stdin) and prints it the way the chat shows it, with links numbered. --json prints the span list instead.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}

		var data []byte
		if len(args) == 1 && args[0] != "-" {
			data, err = os.ReadFile(args[0])
		} else {
			data, err = io.ReadAll(cmd.InOrStdin())
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		spans := linkify.Extract(string(data))
		e.dbg.Named("links").Spans(spans)

		out := cmd.OutOrStdout()
		if linksJSON {
			return writeSpansJSON(out, spans, e.cfg.Apps)
		}
		render.WriteReply(out, "", spans, render.SpanOptions{
			Hyperlinks: hyperlinksFor(e.cfg.Rendering.Hyperlinks, out),
			Apps:       e.cfg.Apps,
		})
		return nil
	},
}

type spanJSON struct {
	Text   string      `json:"text"`
	Kind   string      `json:"kind"`
	Action *actionJSON `json:"action,omitempty"`
}

type actionJSON struct {
	Type   string `json:"type"`
	Target string `json:"target"`
	URI    string `json:"uri,omitempty"`
}

func writeSpansJSON(w io.Writer, spans []linkify.Span, apps config.AppsConfig) error {
	out := make([]spanJSON, 0, len(spans))
	for _, s := range spans {
		sj := spanJSON{Text: s.Text, Kind: s.Kind.String()}
		if s.IsLink() {
			uri, _ := actions.URIFor(s.Action, apps)
			sj.Action = &actionJSON{Type: string(s.Action.Type), Target: s.Action.Target, URI: uri}
		}
		out = append(out, sj)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}
