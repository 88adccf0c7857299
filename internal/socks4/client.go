package socks4

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
)

var (
	// ErrAddressNotSupported is returned for destinations SOCKS4 cannot
	// express, i.e. IPv6 literals.
	ErrAddressNotSupported = errors.New("socks4: ipv6 destinations are not supported")

	errNulInUserID = errors.New("socks4: user-id contains NUL byte")
	errBadHost     = errors.New("socks4: invalid destination host")
)

// socks4aMarker is the DSTIP 0.0.0.1 that tells a SOCKS4a server a hostname
// follows the USERID.
var socks4aMarker = [4]byte{0, 0, 0, 1}

// ClientConnect sends a CONNECT request for host:port with the given user-id
// and reads the reply. An empty userID sends an empty USERID field.
//
// IPv4 literals are sent as plain SOCKS4; any other non-IP host is sent using
// the SOCKS4a extension so the proxy resolves it.
//
// On success it returns the bound address reported by the proxy.
func ClientConnect(rw io.ReadWriter, userID []byte, host string, port uint16) (*net.TCPAddr, error) {
	req, err := NewConnectRequest(userID, host, port)
	if err != nil {
		return nil, err
	}

	if _, err := rw.Write(req); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	rep, err := ReadReply(rw)
	if err != nil {
		return nil, err
	}
	if rep.Code != RepGranted {
		return nil, &ReplyError{Code: rep.Code}
	}
	return rep.Addr(), nil
}

// NewConnectRequest encodes a CONNECT request.
func NewConnectRequest(userID []byte, host string, port uint16) ([]byte, error) {
	if bytes.IndexByte(userID, 0) >= 0 {
		return nil, errNulInUserID
	}

	var (
		dstIP    [4]byte
		hostname string
	)
	if ip := net.ParseIP(host); ip != nil {
		ip4 := ip.To4()
		if ip4 == nil {
			return nil, ErrAddressNotSupported
		}
		copy(dstIP[:], ip4)
	} else {
		if host == "" || len(host) > 255 || bytes.IndexByte([]byte(host), 0) >= 0 {
			return nil, errBadHost
		}
		dstIP = socks4aMarker
		hostname = host
	}

	b := make([]byte, 0, 9+len(userID)+len(hostname)+1)
	b = append(b, Version, CmdConnect)
	b = binary.BigEndian.AppendUint16(b, port)
	b = append(b, dstIP[:]...)
	b = append(b, userID...)
	b = append(b, 0)
	if hostname != "" {
		b = append(b, hostname...)
		b = append(b, 0)
	}
	return b, nil
}
