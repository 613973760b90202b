package ethernet

import (
	"encoding/binary"
	"errors"
)

var errShort = errors.New("ethernet: short frame")

// NewFrame returns a Frame with data set to buf.
// An error is returned if the buffer is smaller than the 14-byte header.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeader {
		return Frame{}, errShort
	}
	return Frame{buf: buf}, nil
}

// Frame encapsulates the raw data of an Ethernet II frame, without
// preamble or FCS (first byte is the start of the destination address).
// VLAN tagging is out of scope: this module only ever emits and parses
// untagged frames.
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice with which the frame was created.
func (efrm Frame) RawData() []byte { return efrm.buf }

// HeaderLength returns the length of the Ethernet header, always 14.
func (efrm Frame) HeaderLength() int { return sizeHeader }

// Payload returns the data following the 14-byte header.
func (efrm Frame) Payload() []byte { return efrm.buf[sizeHeader:] }

// DestinationHardwareAddr returns the destination MAC address field.
func (efrm Frame) DestinationHardwareAddr() *[6]byte {
	return (*[6]byte)(efrm.buf[0:6])
}

// SetDestinationHardwareAddr overwrites the destination MAC address field.
func (efrm Frame) SetDestinationHardwareAddr(dst [6]byte) {
	copy(efrm.buf[0:6], dst[:])
}

// SourceHardwareAddr returns the source MAC address field.
func (efrm Frame) SourceHardwareAddr() *[6]byte {
	return (*[6]byte)(efrm.buf[6:12])
}

// SetSourceHardwareAddr overwrites the source MAC address field.
func (efrm Frame) SetSourceHardwareAddr(src [6]byte) {
	copy(efrm.buf[6:12], src[:])
}

// IsBroadcast returns true if the destination is ff:ff:ff:ff:ff:ff.
func (efrm Frame) IsBroadcast() bool {
	d := efrm.buf[0:6]
	return d[0] == 0xff && d[1] == 0xff && d[2] == 0xff && d[3] == 0xff && d[4] == 0xff && d[5] == 0xff
}

// EtherType returns the EtherType field of the frame.
func (efrm Frame) EtherType() Type {
	return Type(binary.BigEndian.Uint16(efrm.buf[12:14]))
}

// SetEtherType sets the EtherType field of the frame.
func (efrm Frame) SetEtherType(t Type) {
	binary.BigEndian.PutUint16(efrm.buf[12:14], uint16(t))
}

// ClearHeader zeros out the 14-byte header.
func (efrm Frame) ClearHeader() {
	for i := range efrm.buf[:sizeHeader] {
		efrm.buf[i] = 0
	}
}

// ValidateSize reports whether buf is at least long enough to hold a header.
func (efrm Frame) ValidateSize() error {
	if len(efrm.buf) < sizeHeader {
		return errShort
	}
	return nil
}

// PrependHeader writes a 14-byte Ethernet header into the front of buf,
// which must already hold at least sizeHeader bytes, and returns a Frame
// over it.
func PrependHeader(buf []byte, dst, src [6]byte, ethType Type) (Frame, error) {
	frm, err := NewFrame(buf)
	if err != nil {
		return Frame{}, err
	}
	frm.SetDestinationHardwareAddr(dst)
	frm.SetSourceHardwareAddr(src)
	frm.SetEtherType(ethType)
	return frm, nil
}
