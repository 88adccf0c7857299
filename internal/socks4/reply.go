package socks4

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

// request
// +----+----+----+----+----+----+----+----+----+----+....+----+
// | VN | CD | DSTPORT |      DSTIP        | USERID       |NULL|
// +----+----+----+----+----+----+----+----+----+----+....+----+
//    1    1      2              4           variable       1
//
// reply
// +----+----+----+----+----+----+----+----+
// | VN | CD | DSTPORT |      DSTIP        |
// +----+----+----+----+----+----+----+----+
//    1    1      2              4

const (
	Version      byte = 0x04 // VN of a request
	ReplyVersion byte = 0x00 // VN of a reply

	CmdConnect byte = 0x01
	CmdBind    byte = 0x02
)

// Reply codes.
const (
	RepGranted          byte = 0x5A // request granted
	RepRejected         byte = 0x5B // request rejected or failed
	RepIdentdUnreached  byte = 0x5C // server cannot connect to identd on the client
	RepIdentdMismatched byte = 0x5D // client and identd report different user-ids
)

const replyLen = 8

// ReplyError is returned when the proxy answers a request with anything other
// than RepGranted.
type ReplyError struct {
	Code byte
}

func (e *ReplyError) Error() string {
	switch e.Code {
	case RepRejected:
		return "socks4: request rejected or failed"
	case RepIdentdUnreached:
		return "socks4: request rejected: proxy cannot reach identd on the client"
	case RepIdentdMismatched:
		return "socks4: request rejected: identd reported a different user-id"
	default:
		return fmt.Sprintf("socks4: unknown reply code 0x%02x", e.Code)
	}
}

// Reply is a parsed SOCKS4 reply.
type Reply struct {
	Code byte
	Port uint16
	IP   net.IP
}

// Addr returns the bound address carried in the reply.
func (r *Reply) Addr() *net.TCPAddr {
	return &net.TCPAddr{IP: r.IP, Port: int(r.Port)}
}

// ReadReply reads an 8-byte SOCKS4 reply.
func ReadReply(r io.Reader) (*Reply, error) {
	var b [replyLen]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return nil, fmt.Errorf("read reply: %w", err)
	}
	if b[0] != ReplyVersion {
		return nil, fmt.Errorf("read reply: unexpected version 0x%02x", b[0])
	}
	return &Reply{
		Code: b[1],
		Port: binary.BigEndian.Uint16(b[2:4]),
		IP:   net.IPv4(b[4], b[5], b[6], b[7]),
	}, nil
}

// WriteReply writes a SOCKS4 reply with the given code and bound address.
// A nil or non-IPv4 bound address is written as 0.0.0.0:0.
func WriteReply(w io.Writer, code byte, bound *net.TCPAddr) error {
	b := make([]byte, replyLen)
	b[0] = ReplyVersion
	b[1] = code
	if bound != nil {
		if ip4 := bound.IP.To4(); ip4 != nil {
			binary.BigEndian.PutUint16(b[2:4], uint16(bound.Port))
			copy(b[4:], ip4)
		}
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("write reply: %w", err)
	}
	return nil
}
