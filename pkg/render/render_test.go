package render

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
)

func TestRenderMarkdown(t *testing.T) {
	md := "# Hello World\n\nThis is a **test**.\n\n- Item 1\n- Item 2\n"

	out, err := RenderMarkdown(md, 80)
	if err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}
	if out == "" {
		t.Fatal("expected non-empty output")
	}
	if !strings.Contains(out, "Hello World") {
		t.Error("expected title in output")
	}
}

func TestRenderMarkdownDefaultWidth(t *testing.T) {
	md := "# Test\n\nContent.\n"
	out, err := RenderMarkdown(md, 0)
	if err != nil {
		t.Fatalf("RenderMarkdown with zero width: %v", err)
	}
	if out == "" {
		t.Fatal("expected non-empty output")
	}
}

func TestRenderMarkdownCodeBlock(t *testing.T) {
	md := "```json\n{\"key\": \"value\"}\n```\n"
	out, err := RenderMarkdown(md, 80)
	if err != nil {
		t.Fatalf("RenderMarkdown code block: %v", err)
	}
	if !strings.Contains(out, "key") {
		t.Error("expected code block content in output")
	}
}

func TestRenderMarkdownTranscriptLinks(t *testing.T) {
	fakeTerminal(t, termenv.TrueColor, false, false, nil)
	md := "**AI:** Call [Office](<tel:5551234>) today.\n"
	out, err := RenderMarkdown(md, 80)
	if err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}
	if !strings.Contains(ansi.Strip(out), "Office") {
		t.Errorf("expected link text in output, got %q", out)
	}
}

func TestRenderMarkdownNoColor(t *testing.T) {
	fakeTerminal(t, termenv.Ascii, false, false, nil)
	out, err := RenderMarkdown("# Plain\n\nText.\n", 80)
	if err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}
	if strings.Contains(out, "\x1b[38;") {
		t.Errorf("expected no colour sequences, got %q", out)
	}
}
