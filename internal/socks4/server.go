package socks4

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
)

const maxFieldLen = 1024

// Request is a parsed SOCKS4 or SOCKS4a request.
type Request struct {
	Cmd    byte
	Port   uint16
	IP     net.IP
	UserID []byte
	// Host is set for SOCKS4a requests.
	Host string
}

// Address returns the requested destination as host:port.
func (r *Request) Address() string {
	host := r.Host
	if host == "" {
		host = r.IP.String()
	}
	return net.JoinHostPort(host, strconv.Itoa(int(r.Port)))
}

// ServerReadRequest reads a request from a client.
func ServerReadRequest(r io.Reader) (*Request, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	if hdr[0] != Version {
		return nil, fmt.Errorf("request: unexpected version 0x%02x", hdr[0])
	}

	req := &Request{
		Cmd:  hdr[1],
		Port: binary.BigEndian.Uint16(hdr[2:4]),
		IP:   net.IPv4(hdr[4], hdr[5], hdr[6], hdr[7]),
	}

	userID, err := readNulTerminated(r)
	if err != nil {
		return nil, fmt.Errorf("request user-id: %w", err)
	}
	req.UserID = userID

	// SOCKS4a: 0.0.0.x with x != 0.
	if hdr[4] == 0 && hdr[5] == 0 && hdr[6] == 0 && hdr[7] != 0 {
		host, err := readNulTerminated(r)
		if err != nil {
			return nil, fmt.Errorf("request host: %w", err)
		}
		req.Host = string(host)
	}

	return req, nil
}

func readNulTerminated(r io.Reader) ([]byte, error) {
	var (
		out []byte
		b   [1]byte
	)
	for len(out) <= maxFieldLen {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, err
		}
		if b[0] == 0 {
			return out, nil
		}
		out = append(out, b[0])
	}
	return nil, errors.New("field too long")
}
