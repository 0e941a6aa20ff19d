package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jcadam/parley/pkg/actions"
	"github.com/jcadam/parley/pkg/chat"
	"github.com/jcadam/parley/pkg/config"
	"github.com/jcadam/parley/pkg/debug"
	"github.com/jcadam/parley/pkg/render"
	"github.com/jcadam/parley/pkg/transcript"
)

var (
	plainFlag  bool
	resumeFlag string
)

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "trace requests, replies and link extraction to stderr")
	rootCmd.Flags().BoolVar(&plainFlag, "plain", false, "use the line-based chat even on a terminal")
	rootCmd.Flags().StringVar(&resumeFlag, "resume", "", "continue a saved session by ID prefix")
}

var rootCmd = &cobra.Command{
	Use:   "pl [message]",
	Short: "Parley — chat with tappable phone and map links",
	Long: "Parley sends your messages to a chat backend and shows the replies. " +
		"Phone numbers and addresses in replies become links that open your dialer or map app. " +
		"Nothing is ever dialled for you; the dialer only opens pre-filled.",
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}

		opts := e.chatOptions(os.Stdout)
		opts.Initial = strings.TrimSpace(strings.Join(args, " "))

		if resumeFlag != "" {
			store, err := e.store()
			if err != nil {
				return err
			}
			tr, err := store.Load(resumeFlag)
			if err != nil {
				return err
			}
			opts.Transcript = tr
		}

		var tr transcript.Transcript
		if plainFlag || !render.IsTerminal() {
			tr, err = render.RunPlain(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		} else {
			tr, err = render.RunChat(cmd.Context(), opts)
		}
		if err != nil {
			return err
		}
		return e.saveSession(tr, cmd.ErrOrStderr())
	},
}

// env is what every command needs: where data lives, the loaded config,
// and the debug logger when --debug is set.
type env struct {
	dataDir string
	cfg     *config.Config
	dbg     *debug.Logger
}

// loadEnv resolves the data directory and loads config.yaml, falling back
// to defaults when Parley has not been initialised yet.
func loadEnv(cmd *cobra.Command) (*env, error) {
	dataDir, err := config.DataDir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadOrDefault(dataDir)
	if err != nil {
		return nil, err
	}
	config.ResolveEnvVars(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	e := &env{dataDir: dataDir, cfg: cfg}
	if debugFlag, _ := cmd.Flags().GetBool("debug"); debugFlag {
		e.dbg = debug.NewLogger(cmd.ErrOrStderr())
		e.dbg.Section("parley " + version + " → " + endpointOf(cfg))
	}
	return e, nil
}

func endpointOf(cfg *config.Config) string {
	if cfg.Backend.Endpoint == "" {
		return config.DefaultEndpoint
	}
	return cfg.Backend.Endpoint
}

func (e *env) client() *chat.Client {
	return chat.NewClient(e.cfg.Backend, e.dbg)
}

func (e *env) store() (*transcript.Store, error) {
	return transcript.NewStore(filepath.Join(e.dataDir, "sessions"))
}

// chatOptions wires the configured backend, dispatcher and rendering
// preferences for output written to w.
func (e *env) chatOptions(w io.Writer) render.ChatOptions {
	return render.ChatOptions{
		Client:     e.client(),
		Dispatcher: actions.NewHandoff(e.cfg.Apps),
		Chat:       e.cfg.Chat,
		Apps:       e.cfg.Apps,
		Hyperlinks: hyperlinksFor(e.cfg.Rendering.Hyperlinks, w),
		Debug:      e.dbg.Named("links"),
	}
}

// saveSession persists a finished chat unless sessions are disabled or
// nothing was said.
func (e *env) saveSession(tr transcript.Transcript, w io.Writer) error {
	if tr.Len() == 0 || !e.cfg.Chat.ShouldSaveSessions() {
		return nil
	}
	store, err := e.store()
	if err != nil {
		return err
	}
	path, err := store.Save(tr, e.cfg.Apps)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	fmt.Fprintf(w, "Session saved: %s (resume with: pl --resume %s)\n", path, shortID(tr.ID()))
	return nil
}

// hyperlinksFor applies the configured mode, treating auto as off when w
// is not a terminal.
func hyperlinksFor(mode string, w io.Writer) bool {
	if mode == "" || strings.EqualFold(mode, "auto") {
		f, ok := w.(*os.File)
		if !ok || !term.IsTerminal(int(f.Fd())) {
			return false
		}
	}
	return render.DetectHyperlinks(mode)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
