// Package privacy resolves how Parley reaches its backend: directly, through
// Tor, or through an explicit HTTP or SOCKS proxy.
package privacy

import (
	"fmt"
	"net/http"
	"net/url"
)

// TorProxy is the proxy "tor" expands to.
const TorProxy = "socks5h://127.0.0.1:9050"

// ResolveProxy normalizes a backend.proxy value to a proxy URL. An empty
// return means direct.
func ResolveProxy(value string) string {
	switch value {
	case "", "none", "direct":
		return ""
	case "tor":
		return TorProxy
	default:
		return value
	}
}

// ValidateProxyURL checks that a proxy value is a recognized shorthand or a
// well-formed URL with an allowed scheme.
func ValidateProxyURL(raw string) error {
	switch raw {
	case "", "none", "direct", "tor":
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid proxy URL %q: %w", raw, err)
	}

	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
	default:
		return fmt.Errorf("invalid proxy URL %q: scheme must be http, https, socks5, or socks5h", raw)
	}

	if u.Host == "" {
		return fmt.Errorf("invalid proxy URL %q: missing host", raw)
	}
	return nil
}

// ApplyProxy routes t through the proxy named by value. Direct values
// leave t untouched and never fall back to the environment's proxy.
func ApplyProxy(t *http.Transport, value string) error {
	if err := ValidateProxyURL(value); err != nil {
		return err
	}
	p := ResolveProxy(value)
	if p == "" {
		t.Proxy = nil
		return nil
	}
	u, err := url.Parse(p)
	if err != nil {
		return fmt.Errorf("invalid proxy URL %q: %w", p, err)
	}
	t.Proxy = http.ProxyURL(u)
	return nil
}
