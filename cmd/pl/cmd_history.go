package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jcadam/parley/pkg/config"
	"github.com/jcadam/parley/pkg/render"
	"github.com/jcadam/parley/pkg/transcript"
)

var (
	historyRaw    bool
	exportHTML    bool
	exportMD      bool
	exportOutFile string
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyExportCmd)

	historyShowCmd.Flags().BoolVar(&historyRaw, "raw", false, "print markdown without terminal styling")
	historyExportCmd.Flags().BoolVar(&exportHTML, "html", false, "export as a standalone HTML page")
	historyExportCmd.Flags().BoolVar(&exportMD, "md", true, "export as markdown (default)")
	historyExportCmd.Flags().StringVarP(&exportOutFile, "output", "o", "", "write to `file` instead of stdout")
	historyExportCmd.MarkFlagsMutuallyExclusive("html", "md")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List, view and export saved chat sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyListCmd.RunE(cmd, args)
	},
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		store, err := e.store()
		if err != nil {
			return err
		}
		return listSessions(cmd.OutOrStdout(), store)
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, tr, err := loadSession(cmd, args[0])
		if err != nil {
			return err
		}
		md := tr.Markdown(e.cfg.Apps)
		out := cmd.OutOrStdout()
		if historyRaw {
			fmt.Fprint(out, md)
			return nil
		}
		rendered, err := render.RenderMarkdown(md, terminalWidth(out))
		if err != nil {
			fmt.Fprint(out, md)
			return nil
		}
		fmt.Fprint(out, rendered)
		return nil
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a saved session as markdown or HTML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, tr, err := loadSession(cmd, args[0])
		if err != nil {
			return err
		}

		asHTML, err := exportFormat(exportHTML, exportMD)
		if err != nil {
			return err
		}
		content, err := exportSession(tr, e.cfg.Apps, asHTML)
		if err != nil {
			return err
		}
		if exportOutFile == "" {
			fmt.Fprint(cmd.OutOrStdout(), content)
			return nil
		}
		if err := os.WriteFile(exportOutFile, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", exportOutFile)
		return nil
	},
}

func loadSession(cmd *cobra.Command, id string) (*env, transcript.Transcript, error) {
	e, err := loadEnv(cmd)
	if err != nil {
		return nil, transcript.Transcript{}, err
	}
	store, err := e.store()
	if err != nil {
		return nil, transcript.Transcript{}, err
	}
	tr, err := store.Load(id)
	if err != nil {
		return nil, transcript.Transcript{}, err
	}
	return e, tr, nil
}

func listSessions(w io.Writer, store *transcript.Store) error {
	all, err := store.List()
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}
	if len(all) == 0 {
		fmt.Fprintln(w, "No saved sessions. Start one with: pl")
		return nil
	}
	for _, s := range all {
		fmt.Fprintf(w, "  %s  %s  %s  (%d messages)\n",
			shortID(s.ID), s.Started.Local().Format("2006-01-02 15:04"), s.Title, s.Messages)
	}
	return nil
}

// exportFormat reports whether an export should be HTML. Markdown is the
// default; turning it off without asking for HTML leaves nothing to write.
func exportFormat(html, md bool) (bool, error) {
	switch {
	case html:
		return true, nil
	case md:
		return false, nil
	}
	return false, errors.New("no export format: use --md or --html")
}

func exportSession(tr transcript.Transcript, apps config.AppsConfig, asHTML bool) (string, error) {
	if asHTML {
		return transcript.ExportHTML(tr, apps)
	}
	return tr.Markdown(apps), nil
}

func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return 80
}
