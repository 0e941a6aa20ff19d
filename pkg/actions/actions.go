// Package actions turns link actions into system app handoffs: a dial UI
// for phone numbers and a map viewer for addresses.
package actions

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/jcadam/parley/pkg/config"
	"github.com/jcadam/parley/pkg/linkify"
)

// Dispatcher performs the platform side effect for a link action.
type Dispatcher interface {
	Dispatch(a linkify.Action) error
}

// BuildTelURI returns the dial URI for a number. Opening it presents a
// dialer pre-filled with the number; it never places the call.
func BuildTelURI(number string) string {
	return "tel:" + number
}

// BuildGeoURI returns a geo URI that searches for address. Coordinates are
// unknown, so the anchor is 0,0 and the address travels as the query,
// form-encoded (spaces become "+").
func BuildGeoURI(address string) string {
	return "geo:0,0?q=" + url.QueryEscape(address)
}

// buildMapsURL substitutes the encoded address into a web map template.
func buildMapsURL(template, address string) string {
	return strings.ReplaceAll(template, "{query}", url.QueryEscape(address))
}

// URIFor returns the URI that dispatching a would open.
func URIFor(a linkify.Action, apps config.AppsConfig) (string, error) {
	switch a.Type {
	case linkify.ActionDial:
		if a.Number() == "" {
			return "", fmt.Errorf("dial action has no number")
		}
		return BuildTelURI(a.Number()), nil
	case linkify.ActionShowLocation:
		if a.Address() == "" {
			return "", fmt.Errorf("location action has no address")
		}
		if apps.MapsURL != "" {
			return buildMapsURL(apps.MapsURL, a.Address()), nil
		}
		return BuildGeoURI(a.Address()), nil
	}
	return "", fmt.Errorf("unknown action type %q", a.Type)
}

// ClipboardText is what "copy" puts on the clipboard for an action: the
// bare number or address.
func ClipboardText(a linkify.Action) string {
	return a.Target
}

// Recorder is a Dispatcher that remembers actions instead of launching
// anything. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	actions []linkify.Action
	Err     error // returned from every Dispatch when set
}

// Dispatch records a.
func (r *Recorder) Dispatch(a linkify.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, a)
	return r.Err
}

// Actions returns a copy of the recorded actions.
func (r *Recorder) Actions() []linkify.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]linkify.Action, len(r.actions))
	copy(out, r.actions)
	return out
}
