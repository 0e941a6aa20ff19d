package render

import (
	"os"
	"strconv"
	"strings"

	"github.com/BourgeoisBear/rasterm"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
)

// Probes are variables so tests can fake a terminal.
var (
	colorProfile = termenv.EnvColorProfile
	kittyCapable = rasterm.IsKittyCapable
	itermCapable = rasterm.IsItermCapable
	getenv       = os.Getenv
)

// hyperlinkPrograms are TERM_PROGRAM values of terminals that understand
// OSC 8 but are not caught by the rasterm probes.
var hyperlinkPrograms = []string{"wezterm", "vscode", "ghostty", "hyper", "tabby"}

// DetectHyperlinks decides whether link spans are emitted as OSC 8
// hyperlinks. mode is the rendering.hyperlinks config value: "on", "off",
// or "auto" (default).
func DetectHyperlinks(mode string) bool {
	switch strings.ToLower(mode) {
	case "on":
		return true
	case "off":
		return false
	}
	return detectTerminal()
}

func detectTerminal() bool {
	if colorProfile() == termenv.Ascii {
		return false
	}
	if kittyCapable() || itermCapable() {
		return true
	}
	program := strings.ToLower(getenv("TERM_PROGRAM"))
	for _, p := range hyperlinkPrograms {
		if strings.Contains(program, p) {
			return true
		}
	}
	// VTE based terminals (GNOME Terminal, Tilix) since 0.50.
	vte, err := strconv.Atoi(getenv("VTE_VERSION"))
	return err == nil && vte >= 5000
}

// hyperlink wraps text in an OSC 8 sequence pointing at uri.
func hyperlink(uri, text string) string {
	return ansi.SetHyperlink(uri) + text + ansi.ResetHyperlink()
}
