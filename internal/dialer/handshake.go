package dialer

import (
	"fmt"
	"io"

	"github.com/die-net/socksconnect/internal/proxyurl"
	"github.com/die-net/socksconnect/internal/socks4"
	"github.com/die-net/socksconnect/internal/socks5"
)

// negotiate performs the handshake for v over rw and returns the bound
// address reported by the proxy.
func negotiate(rw io.ReadWriter, v proxyurl.Variant, target Target) (string, error) {
	switch v := v.(type) {
	case proxyurl.V4Anonymous:
		return socks4Connect(rw, nil, target)
	case proxyurl.V4WithIdentification:
		return socks4Connect(rw, v.UserID, target)
	case proxyurl.V5Anonymous:
		return socks5.ClientDial(rw, nil, target.Host, target.Port)
	case proxyurl.V5WithAuthorization:
		auth := &socks5.Auth{Username: v.Username, Password: v.Password}
		return socks5.ClientDial(rw, auth, target.Host, target.Port)
	default:
		return "", fmt.Errorf("unknown proxy variant %T", v)
	}
}

func socks4Connect(rw io.ReadWriter, userID []byte, target Target) (string, error) {
	bound, err := socks4.ClientConnect(rw, userID, target.Host, target.Port)
	if err != nil {
		return "", err
	}
	return bound.String(), nil
}
