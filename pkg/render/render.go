// Package render turns chat replies into terminal output: link spans,
// glamour markdown, and the interactive chat TUI.
package render

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/muesli/termenv"
)

// RenderMarkdown renders markdown to styled terminal output using Glamour.
// Terminals without colour get the plain notty style.
func RenderMarkdown(markdown string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}

	style := parleyStyle()
	if colorProfile() == termenv.Ascii {
		style = styles.NoTTYStyleConfig
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}

// parleyStyle is TokyoNight with link colours matching the chat TUI and a
// quieter rule.
func parleyStyle() ansi.StyleConfig {
	s := styles.TokyoNightStyleConfig

	s.Link.Color = stringPtr(accentColor)
	s.Link.Underline = boolPtr(true)
	s.LinkText.Color = stringPtr(accentColor)
	s.HorizontalRule.Format = "\n──────────\n"

	return s
}

func stringPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
