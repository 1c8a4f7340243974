package connection

import (
	"fmt"
	"net/url"
)

// DefaultPath is the backend channel path.
const DefaultPath = "/ws/neuro/"

// Endpoint derives the channel address from a page origin: a page served
// over https gets wss, anything served over http gets ws. Host and port are
// kept as-is. An empty path selects DefaultPath.
func Endpoint(origin, path string) (string, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidOrigin, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: %q has no host", ErrInvalidOrigin, origin)
	}

	var scheme string
	switch u.Scheme {
	case "https":
		scheme = "wss"
	case "http":
		scheme = "ws"
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidOrigin, u.Scheme)
	}

	if path == "" {
		path = DefaultPath
	}

	endpoint := url.URL{Scheme: scheme, Host: u.Host, Path: path}
	return endpoint.String(), nil
}
