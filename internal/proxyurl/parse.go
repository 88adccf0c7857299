package proxyurl

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// DefaultPort is applied when a SOCKS URL omits its port.
const DefaultPort = "1080"

// ParseString parses s as a URL and then as a SOCKS proxy descriptor.
func ParseString(s string) (Descriptor, bool) {
	u, err := url.Parse(s)
	if err != nil {
		return Descriptor{}, false
	}
	return Parse(u)
}

// Parse converts a proxy URL into a Descriptor.
//
// Supported schemes (case-insensitive):
//   - socks4://[userid@]host[:port]
//   - socks4a://[userid@]host[:port]
//   - socks5://[user:pass@]host[:port]
//   - socks5h://[user:pass@]host[:port]
//
// Any other scheme, a missing host, a non-empty path, query or fragment, an
// invalid port, or a SOCKS4 user-id containing NUL reports ok == false.
func Parse(u *url.URL) (d Descriptor, ok bool) {
	if u == nil || u.Opaque != "" {
		return Descriptor{}, false
	}
	if u.Path != "" && u.Path != "/" {
		return Descriptor{}, false
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return Descriptor{}, false
	}

	host := u.Hostname()
	if host == "" {
		return Descriptor{}, false
	}
	port := u.Port()
	if port == "" {
		port = DefaultPort
	} else if n, err := strconv.ParseUint(port, 10, 16); err != nil || n == 0 {
		return Descriptor{}, false
	}

	var v Variant
	switch strings.ToLower(u.Scheme) {
	case "socks4", "socks4a":
		if v, ok = v4Variant(u.User); !ok {
			return Descriptor{}, false
		}
	case "socks5", "socks5h":
		v = v5Variant(u.User)
	default:
		return Descriptor{}, false
	}

	return Descriptor{Addr: net.JoinHostPort(host, port), Variant: v}, true
}

// v4Variant reports false for a user-id containing NUL, which cannot be
// framed in a SOCKS4 request.
func v4Variant(user *url.Userinfo) (Variant, bool) {
	if user == nil || user.Username() == "" {
		return V4Anonymous{}, true
	}
	if strings.IndexByte(user.Username(), 0) >= 0 {
		return nil, false
	}
	return V4WithIdentification{UserID: []byte(user.Username())}, true
}

func v5Variant(user *url.Userinfo) Variant {
	if user == nil {
		return V5Anonymous{}
	}
	pass, ok := user.Password()
	if !ok {
		return V5Anonymous{}
	}
	return V5WithAuthorization{Username: user.Username(), Password: pass}
}
