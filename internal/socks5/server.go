package socks5

import (
	"fmt"
	"io"
	"slices"

	txsocks5 "github.com/txthinking/socks5"
)

// Negotiation is what a client sent during method selection and, if it ran,
// the username/password sub-negotiation.
type Negotiation struct {
	Methods  []byte
	Username string
	Password string
}

// ServerNegotiate runs the server side of method selection. A nil auth
// requires the client to offer "no authentication"; a non-nil auth requires
// username/password and verifies the credentials.
func ServerNegotiate(rw io.ReadWriter, auth *Auth) error {
	_, err := ServerNegotiateRecorded(rw, auth)
	return err
}

// ServerNegotiateRecorded is ServerNegotiate that also returns what the client
// sent, including on failure.
func ServerNegotiateRecorded(rw io.ReadWriter, auth *Auth) (Negotiation, error) {
	var n Negotiation

	neg, err := txsocks5.NewNegotiationRequestFrom(rw)
	if err != nil {
		return n, fmt.Errorf("negotiation request: %w", err)
	}
	n.Methods = neg.Methods

	method := txsocks5.MethodNone
	if auth != nil {
		method = txsocks5.MethodUsernamePassword
	}
	if !slices.Contains(neg.Methods, method) {
		writeNoAcceptableMethods(rw)
		return n, fmt.Errorf("client did not offer method 0x%02x", method)
	}
	if _, err := txsocks5.NewNegotiationReply(method).WriteTo(rw); err != nil {
		return n, fmt.Errorf("negotiation reply: %w", err)
	}
	if auth == nil {
		return n, nil
	}

	urq, err := txsocks5.NewUserPassNegotiationRequestFrom(rw)
	if err != nil {
		return n, fmt.Errorf("read userpass: %w", err)
	}
	n.Username, n.Password = string(urq.Uname), string(urq.Passwd)
	if n.Username != auth.Username || n.Password != auth.Password {
		_, _ = txsocks5.NewUserPassNegotiationReply(txsocks5.UserPassStatusFailure).WriteTo(rw)
		return n, fmt.Errorf("auth failed")
	}
	if _, err := txsocks5.NewUserPassNegotiationReply(txsocks5.UserPassStatusSuccess).WriteTo(rw); err != nil {
		return n, fmt.Errorf("write userpass: %w", err)
	}
	return n, nil
}

// ServerNegotiateNoAuth is ServerNegotiate without credentials.
func ServerNegotiateNoAuth(rw io.ReadWriter) error {
	return ServerNegotiate(rw, nil)
}

// ServerReadMethods reads a client's method selection request and returns the
// offered methods without replying.
func ServerReadMethods(r io.Reader) ([]byte, error) {
	neg, err := txsocks5.NewNegotiationRequestFrom(r)
	if err != nil {
		return nil, fmt.Errorf("negotiation request: %w", err)
	}
	return neg.Methods, nil
}

func ServerReadRequest(r io.Reader) (*txsocks5.Request, error) {
	req, err := txsocks5.NewRequestFrom(r)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	return req, nil
}
