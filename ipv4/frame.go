package ipv4

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"
)

var (
	errShort      = errors.New("ipv4: short buffer")
	errBadTL      = errors.New("ipv4: bad total length")
	errBadIHL     = errors.New("ipv4: bad IHL")
	errBadVersion = errors.New("ipv4: bad version")
)

// NewFrame returns a Frame with data set to buf.
// An error is returned if the buffer size is smaller than 20.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeader {
		return Frame{}, errShort
	}
	return Frame{buf: buf}, nil
}

// Frame encapsulates the raw data of an IPv4 packet and provides methods
// for retrieving the fields this module needs: the on-link address pair
// and protocol used to decide whether a received datagram warrants an
// ARP cache update. See RFC 791.
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice with which the frame was created.
func (ifrm Frame) RawData() []byte { return ifrm.buf }

func (ifrm Frame) ihl() uint8     { return ifrm.buf[0] & 0xf }
func (ifrm Frame) version() uint8 { return ifrm.buf[0] >> 4 }

// HeaderLength returns the length of the IPv4 header, including options.
func (ifrm Frame) HeaderLength() int { return int(ifrm.ihl()) * 4 }

// VersionAndIHL returns the version and IHL fields. Version should be 4.
func (ifrm Frame) VersionAndIHL() (version, ihl uint8) {
	v := ifrm.buf[0]
	return v >> 4, v & 0xf
}

// TotalLength returns the entire datagram size in bytes, header included.
func (ifrm Frame) TotalLength() uint16 {
	return binary.BigEndian.Uint16(ifrm.buf[2:4])
}

// TTL returns the time-to-live field.
func (ifrm Frame) TTL() uint8 { return ifrm.buf[8] }

// Protocol returns the upper-layer protocol field.
func (ifrm Frame) Protocol() Protocol { return Protocol(ifrm.buf[9]) }

// SourceAddr returns a pointer to the source IPv4 address in the header.
func (ifrm Frame) SourceAddr() *[4]byte {
	return (*[4]byte)(ifrm.buf[12:16])
}

// DestinationAddr returns a pointer to the destination IPv4 address in the header.
func (ifrm Frame) DestinationAddr() *[4]byte {
	return (*[4]byte)(ifrm.buf[16:20])
}

// Payload returns the datagram payload. Call ValidateSize beforehand to
// avoid a panic on malformed length fields.
func (ifrm Frame) Payload() []byte {
	off := ifrm.HeaderLength()
	l := ifrm.TotalLength()
	return ifrm.buf[off:l]
}

// ClearHeader zeros out the fixed (non-option) header contents.
func (ifrm Frame) ClearHeader() {
	for i := range ifrm.buf[:sizeHeader] {
		ifrm.buf[i] = 0
	}
}

// ValidateSize checks the frame's size fields against the actual buffer
// length and returns a non-nil error on finding an inconsistency.
func (ifrm Frame) ValidateSize() error {
	if len(ifrm.buf) < sizeHeader {
		return errShort
	}
	ihl := ifrm.ihl()
	tl := ifrm.TotalLength()
	if ihl < 5 {
		return errBadIHL
	}
	if tl < sizeHeader || tl < uint16(ihl)*4 {
		return errBadTL
	}
	if int(tl) > len(ifrm.buf) {
		return errShort
	}
	if ifrm.version() != 4 {
		return errBadVersion
	}
	return nil
}

func (ifrm Frame) String() string {
	dst := netip.AddrFrom4(*ifrm.DestinationAddr())
	src := netip.AddrFrom4(*ifrm.SourceAddr())
	return fmt.Sprintf("IP proto=%d SRC=%s DST=%s LEN=%d TTL=%d", ifrm.Protocol(), src, dst, ifrm.TotalLength(), ifrm.TTL())
}
