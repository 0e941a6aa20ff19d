package actions

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/jcadam/parley/pkg/linkify"
)

// ErrNoClipboard is returned when no clipboard tool is installed.
var ErrNoClipboard = errors.New("no clipboard tool found (install wl-copy, xclip or xsel)")

type clipboardTool struct {
	name string
	args []string
}

// linuxClipboards are tried in order: Wayland first, then X11.
var linuxClipboards = []clipboardTool{
	{"wl-copy", nil},
	{"xclip", []string{"-selection", "clipboard"}},
	{"xsel", []string{"--clipboard", "--input"}},
}

// CopyAction copies the number or address behind a link.
func CopyAction(a linkify.Action) error {
	return CopyToClipboard(ClipboardText(a))
}

// CopyToClipboard copies text to the system clipboard.
func CopyToClipboard(text string) error {
	tool, ok := findClipboard(exec.LookPath)
	if !ok {
		return ErrNoClipboard
	}

	cmd := exec.Command(tool.name, tool.args...)
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("clipboard copy failed (%s): %w", tool.name, err)
	}
	return nil
}

// findClipboard picks the clipboard tool for this platform.
func findClipboard(lookPath func(string) (string, error)) (clipboardTool, bool) {
	if runtime.GOOS == "darwin" {
		return clipboardTool{name: "pbcopy"}, true
	}
	for _, tool := range linuxClipboards {
		if _, err := lookPath(tool.name); err == nil {
			return tool, true
		}
	}
	return clipboardTool{}, false
}
