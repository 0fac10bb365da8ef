package auth

import (
	"fmt"
	"net"
	"net/url"
)

type callbackAddr struct {
	listener    net.Listener
	path        string
	redirectURL string
}

// callbackListener listens on the host and port of the redirect URL. Port 0
// picks a free port and the returned redirect URL names it.
func callbackListener(redirect string) (callbackAddr, error) {
	u, err := url.Parse(redirect)
	if err != nil {
		return callbackAddr{}, fmt.Errorf("parsing redirect url: %w", err)
	}
	l, err := net.Listen("tcp", u.Host)
	if err != nil {
		return callbackAddr{}, fmt.Errorf("listening for oauth callback on %s: %w", u.Host, err)
	}
	if u.Port() == "0" {
		u.Host = l.Addr().String()
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return callbackAddr{listener: l, path: path, redirectURL: u.String()}, nil
}
