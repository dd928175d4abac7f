package client

import (
	"fmt"
	"net/url"
)

// DeriveWSURL converts a portal base URL (http://host:port) into the
// WebSocket endpoint (ws://host:port/ws). https maps to wss.
func DeriveWSURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported portal scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("portal url %q has no host", baseURL)
	}
	u.Path = "/ws"
	u.RawQuery = ""
	return u.String(), nil
}
