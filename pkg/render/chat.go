package render

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	zone "github.com/lrstanley/bubblezone"
	"golang.org/x/term"

	"github.com/jcadam/parley/pkg/actions"
	"github.com/jcadam/parley/pkg/chat"
	"github.com/jcadam/parley/pkg/config"
	"github.com/jcadam/parley/pkg/debug"
	"github.com/jcadam/parley/pkg/linkify"
	"github.com/jcadam/parley/pkg/transcript"
)

// Sender sends one chat message and returns the reply text.
type Sender interface {
	Send(ctx context.Context, message string) (string, error)
}

// ChatOptions wires a chat session to its collaborators.
type ChatOptions struct {
	Client     Sender
	Dispatcher actions.Dispatcher
	// Copy puts text on the clipboard. Defaults to actions.CopyToClipboard.
	Copy func(text string) error

	Chat       config.ChatConfig
	Apps       config.AppsConfig
	Hyperlinks bool

	// Initial is sent as soon as the session starts.
	Initial string
	// Transcript resumes an earlier session; zero means a fresh one.
	Transcript transcript.Transcript

	Debug *debug.Logger
}

func (o ChatOptions) copyFunc() func(string) error {
	if o.Copy != nil {
		return o.Copy
	}
	return actions.CopyToClipboard
}

// startTranscript returns the transcript a session begins with. A resumed
// transcript can never have a request in flight in this process.
func (o ChatOptions) startTranscript() transcript.Transcript {
	if o.Transcript.ID() == "" {
		return transcript.New()
	}
	if o.Transcript.Pending() {
		return o.Transcript.Apply(transcript.ResponseFailed{Reason: transcript.InterruptedReason, At: time.Now()})
	}
	return o.Transcript
}

// --- Message types ---

// replyMsg carries the outcome of a backend request.
type replyMsg struct {
	text string
	err  error
}

// actionResultMsg carries the result of a dispatch or clipboard copy.
type actionResultMsg struct {
	status string
	err    error
}

// thinkingTickMsg drives the spinner while a request is in flight.
type thinkingTickMsg time.Time

func thinkingTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return thinkingTickMsg(t)
	})
}

// --- Styles (TokyoNight palette) ---

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5FD7")).PaddingLeft(1)
	userLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7DCFFF"))
	aiLabelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#9ECE6A"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7768E"))
	helpBarStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#565F89"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#E0AF68"))
)

// --- Model ---

type chatModel struct {
	opts   ChatOptions
	cancel context.CancelFunc
	// send captures the session context; the model itself is copied by
	// value on every update.
	send func(text string) tea.Cmd

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	zones    *zone.Manager
	ready    bool

	transcript transcript.Transcript
	focused    int // link number with keyboard focus, 0 for none

	statusMsg string
	statusExp time.Time

	width, height int
}

func newChatModel(ctx context.Context, opts ChatOptions) chatModel {
	ctx, cancel := context.WithCancel(ctx)

	ta := textarea.New()
	ta.Placeholder = "Ask something..."
	ta.CharLimit = 4096
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.Focus()
	ta.KeyMap.InsertNewline.SetEnabled(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = statusStyle

	client := opts.Client
	return chatModel{
		opts:       opts,
		cancel:     cancel,
		send:       func(text string) tea.Cmd { return sendCmd(ctx, client, text) },
		textarea:   ta,
		spinner:    sp,
		zones:      zone.New(),
		transcript: opts.startTranscript(),
	}
}

// --- Bubble Tea interface ---

func (m chatModel) Init() tea.Cmd {
	if m.opts.Initial != "" {
		return func() tea.Msg { return submitMsg(m.opts.Initial) }
	}
	return textarea.Blink
}

// submitMsg asks the model to send text as if the user typed it.
type submitMsg string

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 2
		inputHeight := 5 // textarea (3) + help bar (1) + spacer (1)
		vpHeight := m.height - headerHeight - inputHeight
		if vpHeight < 1 {
			vpHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.textarea.SetWidth(m.width - 2)
		m.rebuildViewport()
		return m, nil

	case submitMsg:
		return m.submit(string(msg))

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case replyMsg:
		return m.handleReply(msg)

	case actionResultMsg:
		if msg.err != nil {
			m.setStatus("Error: " + msg.err.Error())
		} else {
			m.setStatus(msg.status)
		}
		return m, nil

	case thinkingTickMsg:
		if m.transcript.Pending() {
			m.spinner, _ = m.spinner.Update(spinner.TickMsg{})
			m.rebuildViewport()
			return m, thinkingTick()
		}
		return m, nil

	default:
		if !m.transcript.Pending() {
			var cmd tea.Cmd
			m.textarea, cmd = m.textarea.Update(msg)
			return m, cmd
		}
		return m, nil
	}
}

func (m chatModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := headerStyle.Render("Parley") + helpBarStyle.Render("  "+m.opts.clientLabel())

	inputArea := m.textarea.View()
	if m.transcript.Pending() {
		inputArea = helpBarStyle.Render("  waiting for reply...")
	}

	view := strings.Join([]string{header, "", m.viewport.View(), "", inputArea, m.renderHelpBar()}, "\n")
	return m.zones.Scan(view)
}

func (o ChatOptions) clientLabel() string {
	if e, ok := o.Client.(interface{ Endpoint() string }); ok {
		return e.Endpoint()
	}
	return ""
}

// --- Key handling ---

func (m chatModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "ctrl+c":
		m.cancel()
		return m, tea.Quit
	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		return m.scrollViewport(msg)
	case "tab":
		m.moveFocus(1)
		return m, nil
	case "shift+tab":
		m.moveFocus(-1)
		return m, nil
	case "esc":
		if m.focused > 0 {
			m.focused = 0
			m.rebuildViewport()
			return m, nil
		}
		m.cancel()
		return m, tea.Quit
	}

	inputEmpty := strings.TrimSpace(m.textarea.Value()) == ""
	if m.focused > 0 && (inputEmpty || m.transcript.Pending()) {
		switch key {
		case "enter":
			return m.dispatchLink(m.focused)
		case "y":
			return m.copyLink(m.focused)
		}
	}

	// The textarea is frozen while a request is in flight.
	if m.transcript.Pending() {
		return m, nil
	}

	if key == "enter" {
		input := strings.TrimSpace(m.textarea.Value())
		if input == "" {
			return m, nil
		}
		if strings.HasSuffix(input, "\\") {
			m.textarea.SetValue(strings.TrimSuffix(m.textarea.Value(), "\\") + "\n")
			m.textarea.CursorEnd()
			return m, nil
		}
		switch strings.ToLower(input) {
		case "quit", "exit":
			m.cancel()
			return m, tea.Quit
		}
		m.textarea.Reset()
		return m.submit(input)
	}

	// Terminal responses (cursor reports, colour queries) sometimes leak
	// through the input parser as runes.
	if msg.Type == tea.KeyRunes && msg.Alt {
		if len(msg.Runes) != 1 || !strings.ContainsRune("fbdluc", msg.Runes[0]) {
			return m, nil
		}
	}
	if msg.Type == tea.KeyRunes && !msg.Alt && looksLikeEscapeFragment(msg.Runes) {
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// submit records the user's message and starts the request. Only one
// request is ever in flight.
func (m chatModel) submit(text string) (tea.Model, tea.Cmd) {
	if m.transcript.Pending() || strings.TrimSpace(text) == "" {
		return m, nil
	}
	m.transcript = m.transcript.Apply(transcript.UserSubmitted{Text: text, At: time.Now()})
	m.textarea.Blur()
	m.rebuildViewport()
	return m, tea.Batch(m.send(text), thinkingTick())
}

func (m chatModel) handleReply(msg replyMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.opts.Debug.Printf("request failed: %v", msg.err)
		m.transcript = m.transcript.Apply(transcript.ResponseFailed{Reason: chat.Describe(msg.err), At: time.Now()})
	} else {
		m.transcript = m.transcript.Apply(transcript.ResponseReceived{Text: msg.text, At: time.Now()})
		if last, ok := m.transcript.Last(); ok {
			m.opts.Debug.Spans(last.Spans)
		}
	}
	cmd := m.textarea.Focus()
	m.rebuildViewport()
	return m, cmd
}

// moveFocus cycles keyboard focus through the transcript's links.
func (m *chatModel) moveFocus(step int) {
	n := len(m.transcript.Links())
	if n == 0 {
		m.setStatus("No links yet")
		return
	}
	m.focused += step
	switch {
	case m.focused > n:
		m.focused = 1
	case m.focused < 1:
		m.focused = n
	}
	m.rebuildViewport()
	m.setStatus(fmt.Sprintf("Link %d of %d: enter opens, y copies", m.focused, n))
}

// --- Mouse ---

func (m chatModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft {
		for n := range len(m.transcript.Links()) {
			if m.zones.Get(linkZoneID(n+1)).InBounds(msg) {
				m.focused = n + 1
				m.rebuildViewport()
				return m.dispatchLink(n + 1)
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func linkZoneID(n int) string {
	return fmt.Sprintf("link-%d", n)
}

// --- Actions ---

func (m chatModel) link(n int) (linkify.Span, bool) {
	links := m.transcript.Links()
	if n < 1 || n > len(links) {
		return linkify.Span{}, false
	}
	return links[n-1], true
}

// dispatchLink hands link n to the dispatcher off the UI goroutine.
func (m chatModel) dispatchLink(n int) (tea.Model, tea.Cmd) {
	l, ok := m.link(n)
	if !ok || m.opts.Dispatcher == nil {
		return m, nil
	}
	m.opts.Debug.Printf("dispatch link %d %s", n, l.Action)
	dispatcher := m.opts.Dispatcher
	status := "Opened " + describeAction(l.Action, m.opts.Apps)
	return m, func() tea.Msg {
		if err := dispatcher.Dispatch(l.Action); err != nil {
			return actionResultMsg{err: err}
		}
		return actionResultMsg{status: status}
	}
}

func (m chatModel) copyLink(n int) (tea.Model, tea.Cmd) {
	l, ok := m.link(n)
	if !ok {
		return m, nil
	}
	text := actions.ClipboardText(l.Action)
	copyText := m.opts.copyFunc()
	return m, func() tea.Msg {
		if err := copyText(text); err != nil {
			return actionResultMsg{err: fmt.Errorf("clipboard: %w", err)}
		}
		return actionResultMsg{status: "Copied " + text}
	}
}

func sendCmd(ctx context.Context, client Sender, text string) tea.Cmd {
	return func() tea.Msg {
		reply, err := client.Send(ctx, text)
		return replyMsg{text: reply, err: err}
	}
}

// --- Rendering ---

func (m *chatModel) rebuildViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	if m.focused == 0 {
		m.viewport.GotoBottom()
	}
}

func (m chatModel) renderTranscript() string {
	userPrefix, aiPrefix := m.opts.Chat.Prefixes()
	width := m.renderWidth()

	var blocks []string
	next := 1
	for _, msg := range m.transcript.Messages() {
		var block string
		switch msg.Role {
		case transcript.RoleUser:
			block = userLabelStyle.Render(userPrefix) + msg.Text
		case transcript.RoleAssistant:
			block = aiLabelStyle.Render(aiPrefix) + RenderSpans(msg.Spans, SpanOptions{
				Hyperlinks: m.opts.Hyperlinks,
				Apps:       m.opts.Apps,
				FirstLink:  next,
				Focused:    m.focused,
				Mark: func(n int, s string) string {
					return m.zones.Mark(linkZoneID(n), s)
				},
			})
			next += len(linkify.Links(msg.Spans))
		case transcript.RoleError:
			block = errorStyle.Render(msg.Text)
		}
		blocks = append(blocks, ansi.Wrap(block, width, ""))
	}
	if m.transcript.Pending() {
		blocks = append(blocks, aiLabelStyle.Render(aiPrefix)+m.spinner.View()+" Thinking...")
	}
	return strings.Join(blocks, "\n\n")
}

func (m chatModel) renderWidth() int {
	if m.width > 4 {
		return m.width - 2
	}
	return 78
}

// scrollViewport forwards a key event to the viewport for scrolling.
func (m chatModel) scrollViewport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.ready {
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m chatModel) renderHelpBar() string {
	status := ""
	if m.statusMsg != "" && time.Now().Before(m.statusExp) {
		status = statusStyle.Render("  " + m.statusMsg)
	}
	hints := "  enter send  tab links  click opens  pgup/pgdn scroll  esc quit"
	if m.focused > 0 {
		hints = "  enter open  y copy  tab next  esc unfocus"
	}
	return helpBarStyle.Render(hints) + status
}

func (m *chatModel) setStatus(msg string) {
	m.statusMsg = msg
	m.statusExp = time.Now().Add(5 * time.Second)
}

// looksLikeEscapeFragment reports whether a multi-rune burst looks like
// terminal escape residue ("50;1R", "11;rgb:2e2e/3434/4040") rather than
// typing. Such payloads have separators and never spaces.
func looksLikeEscapeFragment(runes []rune) bool {
	if len(runes) < 2 {
		return false
	}
	hasSeparator := false
	for _, r := range runes {
		switch r {
		case ' ', '\t':
			return false
		case ';', ':':
			hasSeparator = true
		}
	}
	return hasSeparator
}

// --- Public API ---

// IsTerminal reports whether stdin is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// RunChat runs the chat TUI until the user quits and returns the final
// transcript.
func RunChat(ctx context.Context, opts ChatOptions) (transcript.Transcript, error) {
	m := newChatModel(ctx, opts)
	defer m.zones.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if fm, ok := final.(chatModel); ok {
		return fm.transcript, err
	}
	return m.transcript, err
}
