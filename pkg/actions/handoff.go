package actions

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/jcadam/parley/pkg/config"
	"github.com/jcadam/parley/pkg/linkify"
)

// Handoff dispatches link actions to configured system apps.
type Handoff struct {
	apps config.AppsConfig

	// start launches app with target. Replaced in tests.
	start func(app, target string) error
}

// NewHandoff creates a Handoff with the given app configuration.
func NewHandoff(apps config.AppsConfig) *Handoff {
	return &Handoff{apps: apps, start: startDetached}
}

// Dispatch opens the dial UI for dial actions and the map viewer for
// location actions.
func (h *Handoff) Dispatch(a linkify.Action) error {
	uri, err := URIFor(a, h.apps)
	if err != nil {
		return err
	}
	switch a.Type {
	case linkify.ActionDial:
		return h.open(h.apps.Dialer, uri)
	default:
		return h.open(h.apps.Maps, uri)
	}
}

// open launches the given target with the configured app or system default.
func (h *Handoff) open(app, target string) error {
	if app == "" || app == "default" {
		app = systemOpener()
	}
	return h.start(app, target)
}

func startDetached(app, target string) error {
	cmd := exec.Command(app, target)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("opening %q with %s: %w", target, app, err)
	}
	// System apps are fire-and-forget; the goroutine only reaps the process.
	go cmd.Wait() //nolint:errcheck
	return nil
}

// systemOpener returns the platform default application opener.
func systemOpener() string {
	if runtime.GOOS == "darwin" {
		return "open"
	}
	return "xdg-open"
}
