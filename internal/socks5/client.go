package socks5

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"

	txsocks5 "github.com/txthinking/socks5"
)

var (
	ErrNoAcceptableMethods = errors.New("socks5: proxy accepted none of the offered methods")
	ErrAuthFailed          = errors.New("socks5: username/password rejected")

	errFieldTooLong = errors.New("socks5: field longer than 255 bytes")
)

// ClientDial negotiates authentication and sends a CONNECT request for
// host:port, returning the bound address reported by the proxy.
func ClientDial(rw io.ReadWriter, auth *Auth, host string, port uint16) (string, error) {
	if err := ClientNegotiate(rw, auth); err != nil {
		return "", err
	}
	return ClientConnect(rw, host, port)
}

// ClientNegotiate runs method selection. A nil auth offers only "no
// authentication"; a non-nil auth offers only username/password and then runs
// the RFC 1929 sub-negotiation.
func ClientNegotiate(rw io.ReadWriter, auth *Auth) error {
	method := txsocks5.MethodNone
	if auth != nil {
		if len(auth.Username) > 255 || len(auth.Password) > 255 {
			return errFieldTooLong
		}
		method = txsocks5.MethodUsernamePassword
	}

	if _, err := txsocks5.NewNegotiationRequest([]byte{method}).WriteTo(rw); err != nil {
		return fmt.Errorf("write negotiation: %w", err)
	}

	neg, err := txsocks5.NewNegotiationReplyFrom(rw)
	if err != nil {
		return fmt.Errorf("read negotiation: %w", err)
	}

	switch {
	case neg.Method == MethodNoAcceptable:
		return ErrNoAcceptableMethods
	case neg.Method != method:
		return fmt.Errorf("socks5: proxy selected unoffered method 0x%02x", neg.Method)
	case auth == nil:
		return nil
	}

	if _, err := txsocks5.NewUserPassNegotiationRequest([]byte(auth.Username), []byte(auth.Password)).WriteTo(rw); err != nil {
		return fmt.Errorf("write userpass: %w", err)
	}
	rep, err := txsocks5.NewUserPassNegotiationReplyFrom(rw)
	if err != nil {
		return fmt.Errorf("read userpass: %w", err)
	}
	if rep.Status != txsocks5.UserPassStatusSuccess {
		return ErrAuthFailed
	}
	return nil
}

// ClientConnect sends a CONNECT request for host:port. Hostnames are sent
// unresolved so the proxy performs the lookup.
func ClientConnect(rw io.ReadWriter, host string, port uint16) (string, error) {
	if len(host) > 255 {
		return "", errFieldTooLong
	}
	atyp, dstAddr, dstPort, err := txsocks5.ParseAddress(net.JoinHostPort(host, strconv.Itoa(int(port))))
	if err != nil {
		return "", fmt.Errorf("parse address: %w", err)
	}
	if atyp == txsocks5.ATYPDomain {
		dstAddr = dstAddr[1:]
	}

	if _, err := txsocks5.NewRequest(txsocks5.CmdConnect, atyp, dstAddr, dstPort).WriteTo(rw); err != nil {
		return "", fmt.Errorf("write request: %w", err)
	}

	rep, err := txsocks5.NewReplyFrom(rw)
	if err != nil {
		return "", fmt.Errorf("read reply: %w", err)
	}
	if rep.Rep != txsocks5.RepSuccess {
		return "", &ReplyError{Code: rep.Rep}
	}
	return rep.Address(), nil
}
