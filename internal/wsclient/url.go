package wsclient

import (
	"fmt"
	"net/url"
	"strings"
)

// EndpointURL builds <base><prefix><id>, switching http(s) schemes to
// ws(s). The id is escaped as a single path segment.
func EndpointURL(base, prefix, id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("empty id")
	}
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base url %q has no host", base)
	}
	dir := "/" + strings.Trim(prefix, "/") + "/"
	// RawPath keeps an escaped "/" inside the id from splitting the segment.
	u.RawPath = strings.TrimRight(u.EscapedPath(), "/") + dir + url.PathEscape(id)
	u.Path = strings.TrimRight(u.Path, "/") + dir + id
	return u.String(), nil
}
