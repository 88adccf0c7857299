package socks5

import (
	"fmt"
	"io"
	"net"

	txsocks5 "github.com/txthinking/socks5"
)

const (
	// CmdConnect is the SOCKS5 CONNECT command value.
	CmdConnect = txsocks5.CmdConnect

	// MethodNoAcceptable is RFC 1928's "no acceptable methods" selection.
	MethodNoAcceptable byte = 0xff
)

// Reply codes from RFC 1928.
const (
	RepSuccess             byte = 0x00 // succeeded
	RepServerFailure       byte = 0x01 // general SOCKS server failure
	RepNotAllowed          byte = 0x02 // connection not allowed by ruleset
	RepNetworkUnreachable  byte = 0x03 // network unreachable
	RepHostUnreachable     byte = 0x04 // host unreachable
	RepConnectionRefused   byte = 0x05 // connection refused
	RepTTLExpired          byte = 0x06 // TTL expired
	RepCommandNotSupported byte = 0x07 // command not supported
	RepAddressNotSupported byte = 0x08 // address type not supported
)

// Auth holds RFC 1929 username/password credentials.
type Auth struct {
	Username string
	Password string
}

// ReplyError is returned when the proxy answers CONNECT with a non-success
// reply code.
type ReplyError struct {
	Code byte
}

func (e *ReplyError) Error() string {
	switch e.Code {
	case RepServerFailure:
		return "socks5: general server failure"
	case RepNotAllowed:
		return "socks5: connection not allowed by ruleset"
	case RepNetworkUnreachable:
		return "socks5: network unreachable"
	case RepHostUnreachable:
		return "socks5: host unreachable"
	case RepConnectionRefused:
		return "socks5: connection refused"
	case RepTTLExpired:
		return "socks5: ttl expired"
	case RepCommandNotSupported:
		return "socks5: command not supported"
	case RepAddressNotSupported:
		return "socks5: address type not supported"
	default:
		return fmt.Sprintf("socks5: unknown reply code 0x%02x", e.Code)
	}
}

// WriteCommandNotSupportedReply writes a SOCKS5 reply indicating that the
// requested command is not supported.
func WriteCommandNotSupportedReply(w io.Writer, atyp byte) {
	_, _ = newZeroAddrReply(txsocks5.RepCommandNotSupported, atyp).WriteTo(w)
}

// WriteConnectionRefusedReply writes a SOCKS5 reply indicating that the
// destination connection was refused.
func WriteConnectionRefusedReply(w io.Writer, atyp byte) {
	_, _ = newZeroAddrReply(txsocks5.RepConnectionRefused, atyp).WriteTo(w)
}

// WriteSuccessReply writes a SOCKS5 success reply using localAddr as the bound
// address.
func WriteSuccessReply(w io.Writer, localAddr net.Addr) error {
	a, addr, port, err := txsocks5.ParseAddress(localAddr.String())
	if err != nil {
		return fmt.Errorf("parse local address %q: %w", localAddr.String(), err)
	}
	if a == txsocks5.ATYPDomain {
		addr = addr[1:]
	}
	if _, err := txsocks5.NewReply(txsocks5.RepSuccess, a, addr, port).WriteTo(w); err != nil {
		return fmt.Errorf("success reply: %w", err)
	}
	return nil
}

func newZeroAddrReply(rep, atyp byte) *txsocks5.Reply {
	if atyp == txsocks5.ATYPIPv6 {
		return txsocks5.NewReply(rep, txsocks5.ATYPIPv6, []byte(net.IPv6zero), []byte{0x00, 0x00})
	}
	return txsocks5.NewReply(rep, txsocks5.ATYPIPv4, []byte{0x00, 0x00, 0x00, 0x00}, []byte{0x00, 0x00})
}

func writeNoAcceptableMethods(w io.Writer) {
	_, _ = txsocks5.NewNegotiationReply(MethodNoAcceptable).WriteTo(w)
}
