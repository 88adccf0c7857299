package proxyurl

// Descriptor is a parsed SOCKS proxy endpoint.
type Descriptor struct {
	// Addr is the proxy's host:port.
	Addr string
	// Variant selects and parameterizes the handshake.
	Variant Variant
}

// String describes the descriptor without credentials.
func (d Descriptor) String() string {
	if d.Variant == nil {
		return d.Addr
	}
	return d.Variant.String() + "://" + d.Addr
}

// Variant is one of V4Anonymous, V4WithIdentification, V5Anonymous or
// V5WithAuthorization. The set is closed; only this package can add to it.
type Variant interface {
	// Version is the SOCKS protocol version, 4 or 5.
	Version() int
	// String names the variant. It never includes credentials.
	String() string

	variant()
}

// V4Anonymous is SOCKS4 with an empty USERID.
type V4Anonymous struct{}

// V4WithIdentification is SOCKS4 with a USERID.
type V4WithIdentification struct {
	UserID []byte
}

// V5Anonymous is SOCKS5 offering only the no-authentication method.
type V5Anonymous struct{}

// V5WithAuthorization is SOCKS5 with RFC 1929 username/password
// authentication.
type V5WithAuthorization struct {
	Username string
	Password string
}

func (V4Anonymous) Version() int          { return 4 }
func (V4WithIdentification) Version() int { return 4 }
func (V5Anonymous) Version() int          { return 5 }
func (V5WithAuthorization) Version() int  { return 5 }

func (V4Anonymous) String() string          { return "socks4" }
func (V4WithIdentification) String() string { return "socks4+userid" }
func (V5Anonymous) String() string          { return "socks5" }
func (V5WithAuthorization) String() string  { return "socks5+userpass" }

func (V4Anonymous) variant()          {}
func (V4WithIdentification) variant() {}
func (V5Anonymous) variant()          {}
func (V5WithAuthorization) variant()  {}
