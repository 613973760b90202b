package arp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"

	"github.com/gonetstack/etharp/ethernet"
)

var errShortARP = errors.New("arp: short packet")

// NewFrame returns a Frame with data set to buf.
// An error is returned if buf is smaller than the 28-byte IPv4-over-
// Ethernet ARP packet this module speaks.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeaderv4 {
		return Frame{}, errShortARP
	}
	return Frame{buf: buf[:sizeHeaderv4]}, nil
}

// Frame encapsulates the raw bytes of an ARP packet carrying IPv4
// addresses over Ethernet hardware addresses — the only RFC 826
// combination this module implements. Multi-byte fields are accessed
// big-endian; address fields are accessed byte-wise so that unaligned
// placement of buf never causes a misaligned load.
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice with which the frame was created.
func (afrm Frame) RawData() []byte { return afrm.buf }

// HType returns the hardware-type field.
func (afrm Frame) HType() uint16 { return binary.BigEndian.Uint16(afrm.buf[0:2]) }

// SetHType sets the hardware-type field.
func (afrm Frame) SetHType(v uint16) { binary.BigEndian.PutUint16(afrm.buf[0:2], v) }

// PType returns the protocol-type field.
func (afrm Frame) PType() ethernet.Type {
	return ethernet.Type(binary.BigEndian.Uint16(afrm.buf[2:4]))
}

// SetPType sets the protocol-type field.
func (afrm Frame) SetPType(v ethernet.Type) { binary.BigEndian.PutUint16(afrm.buf[2:4], uint16(v)) }

// HLen returns the hardware-address-length field, always 6 for Ethernet.
func (afrm Frame) HLen() uint8 { return afrm.buf[4] }

// PLen returns the protocol-address-length field, always 4 for IPv4.
func (afrm Frame) PLen() uint8 { return afrm.buf[5] }

// SetHLenPLen sets the hardware- and protocol-address-length fields.
func (afrm Frame) SetHLenPLen(hlen, plen uint8) {
	afrm.buf[4] = hlen
	afrm.buf[5] = plen
}

// Operation returns the operation field.
func (afrm Frame) Operation() Operation { return Operation(binary.BigEndian.Uint16(afrm.buf[6:8])) }

// SetOperation sets the operation field.
func (afrm Frame) SetOperation(op Operation) { binary.BigEndian.PutUint16(afrm.buf[6:8], uint16(op)) }

// SenderHW returns the sender hardware (MAC) address field.
func (afrm Frame) SenderHW() *[6]byte { return (*[6]byte)(afrm.buf[8:14]) }

// SenderIP returns the sender protocol (IPv4) address field.
func (afrm Frame) SenderIP() *[4]byte { return (*[4]byte)(afrm.buf[14:18]) }

// TargetHW returns the target hardware (MAC) address field.
func (afrm Frame) TargetHW() *[6]byte { return (*[6]byte)(afrm.buf[18:24]) }

// TargetIP returns the target protocol (IPv4) address field.
func (afrm Frame) TargetIP() *[4]byte { return (*[4]byte)(afrm.buf[24:28]) }

// SetSenderHW overwrites the sender hardware address field.
func (afrm Frame) SetSenderHW(hw [6]byte) { copy(afrm.buf[8:14], hw[:]) }

// SetSenderIP overwrites the sender protocol address field.
func (afrm Frame) SetSenderIP(ip [4]byte) { copy(afrm.buf[14:18], ip[:]) }

// SetTargetHW overwrites the target hardware address field.
func (afrm Frame) SetTargetHW(hw [6]byte) { copy(afrm.buf[18:24], hw[:]) }

// SetTargetIP overwrites the target protocol address field.
func (afrm Frame) SetTargetIP(ip [4]byte) { copy(afrm.buf[24:28], ip[:]) }

// ClearHeader zeros out the entire ARP packet.
func (afrm Frame) ClearHeader() {
	for i := range afrm.buf {
		afrm.buf[i] = 0
	}
}

// SwapSenderTarget exchanges sender and target hardware and protocol
// address fields in place — the first step of turning a received
// request into a reply.
func (afrm Frame) SwapSenderTarget() {
	sh, th := afrm.SenderHW(), afrm.TargetHW()
	*sh, *th = *th, *sh
	sp, tp := afrm.SenderIP(), afrm.TargetIP()
	*sp, *tp = *tp, *sp
}

// ValidateSize checks buf's actual length against the fixed size this
// module expects for an IPv4-over-Ethernet ARP packet.
func (afrm Frame) ValidateSize() error {
	if len(afrm.buf) < sizeHeaderv4 {
		return errShortARP
	}
	return nil
}

func (afrm Frame) String() string {
	sip := netip.AddrFrom4(*afrm.SenderIP())
	tip := netip.AddrFrom4(*afrm.TargetIP())
	return fmt.Sprintf("ARP %s SHA=%s SPA=%s THA=%s TPA=%s",
		afrm.Operation(), ethernet.AppendAddr(nil, *afrm.SenderHW()), sip,
		ethernet.AppendAddr(nil, *afrm.TargetHW()), tip)
}

// BuildRequest writes a complete ARP request into buf (which must be at
// least sizeHeaderv4 bytes) asking who has tip, announcing that sip is
// at srcHW.
func BuildRequest(buf []byte, srcHW [6]byte, sip, tip [4]byte) (Frame, error) {
	afrm, err := NewFrame(buf)
	if err != nil {
		return Frame{}, err
	}
	afrm.ClearHeader()
	afrm.SetHType(HTypeEthernet)
	afrm.SetPType(PTypeIPv4)
	afrm.SetHLenPLen(6, 4)
	afrm.SetOperation(OpRequest)
	afrm.SetSenderHW(srcHW)
	afrm.SetSenderIP(sip)
	afrm.SetTargetIP(tip)
	// TargetHW is left zeroed: unknown, that's what we're asking for.
	return afrm, nil
}

// BuildReplyInPlace turns afrm, a received request, into a reply
// announcing that the original target address is now at ourHW. It
// reuses afrm's backing buffer.
func BuildReplyInPlace(afrm Frame, ourHW [6]byte) {
	afrm.SwapSenderTarget()
	afrm.SetOperation(OpReply)
	afrm.SetSenderHW(ourHW)
}
