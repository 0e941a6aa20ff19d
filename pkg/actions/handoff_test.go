package actions

import (
	"errors"
	"strings"
	"testing"

	"github.com/jcadam/parley/pkg/config"
	"github.com/jcadam/parley/pkg/linkify"
)

type launch struct {
	app, target string
}

func newTestHandoff(apps config.AppsConfig, launches *[]launch) *Handoff {
	h := NewHandoff(apps)
	h.start = func(app, target string) error {
		*launches = append(*launches, launch{app, target})
		return nil
	}
	return h
}

func TestDispatchDialUsesSystemOpener(t *testing.T) {
	var launches []launch
	h := newTestHandoff(config.AppsConfig{Dialer: "default"}, &launches)

	if err := h.Dispatch(linkify.Action{Type: linkify.ActionDial, Target: "1234567890"}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(launches) != 1 {
		t.Fatalf("expected 1 launch, got %d", len(launches))
	}
	if launches[0].app != systemOpener() {
		t.Errorf("expected system opener, got %q", launches[0].app)
	}
	if launches[0].target != "tel:1234567890" {
		t.Errorf("unexpected target %q", launches[0].target)
	}
}

func TestDispatchLocationUsesMapsApp(t *testing.T) {
	var launches []launch
	h := newTestHandoff(config.AppsConfig{Dialer: "linphone", Maps: "gnome-maps"}, &launches)

	err := h.Dispatch(linkify.Action{Type: linkify.ActionShowLocation, Target: "1 Infinite Loop, Cupertino, CA"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if launches[0].app != "gnome-maps" {
		t.Errorf("expected maps app, got %q", launches[0].app)
	}
	if !strings.HasPrefix(launches[0].target, "geo:0,0?q=1+Infinite+Loop") {
		t.Errorf("unexpected target %q", launches[0].target)
	}
}

func TestDispatchDialUsesDialerApp(t *testing.T) {
	var launches []launch
	h := newTestHandoff(config.AppsConfig{Dialer: "linphone"}, &launches)

	if err := h.Dispatch(linkify.Action{Type: linkify.ActionDial, Target: "42"}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if launches[0].app != "linphone" {
		t.Errorf("expected dialer app, got %q", launches[0].app)
	}
}

func TestDispatchInvalidLaunchesNothing(t *testing.T) {
	var launches []launch
	h := newTestHandoff(config.AppsConfig{}, &launches)

	if err := h.Dispatch(linkify.Action{Type: "fax", Target: "1"}); err == nil {
		t.Error("expected error for unknown action")
	}
	if err := h.Dispatch(linkify.Action{Type: linkify.ActionShowLocation}); err == nil {
		t.Error("expected error for empty address")
	}
	if len(launches) != 0 {
		t.Errorf("expected no launches, got %v", launches)
	}
}

func TestDispatchPropagatesStartError(t *testing.T) {
	h := NewHandoff(config.AppsConfig{})
	h.start = func(app, target string) error { return errors.New("no such app") }
	if err := h.Dispatch(linkify.Action{Type: linkify.ActionDial, Target: "1"}); err == nil {
		t.Error("expected start error")
	}
}

func TestStartDetachedMissingBinary(t *testing.T) {
	err := startDetached("parley-definitely-not-installed", "tel:1")
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	if !strings.Contains(err.Error(), "tel:1") {
		t.Errorf("expected target in error, got %v", err)
	}
}
