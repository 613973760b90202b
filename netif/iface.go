// Package netif describes the network-interface contract the ARP module
// is built against: an IPv4 address, netmask and hardware address, and a
// LinkOutput callback used to hand a fully-framed Ethernet frame to the
// driver. A host stack supplies its own Iface; NewFromSystemInterface is
// a reference constructor useful for tests and small demo programs.
package netif

import (
	"errors"
	"fmt"

	"github.com/gonetstack/etharp/internal"
)

// Iface is the per-link configuration and output hook the ARP module
// needs. LinkOutput must not block or suspend: the module calls it
// synchronously, from inside Output, Query, ARPRx and IPRx.
type Iface struct {
	Name       string
	IP         [4]byte
	Netmask    [4]byte
	Gateway    [4]byte
	HWAddr     [6]byte
	LinkOutput func(iface *Iface, frame []byte) error
}

var errNoLinkOutput = errors.New("netif: LinkOutput not configured")

// Send hands frame to the configured LinkOutput, or returns
// errNoLinkOutput if none was configured.
func (f *Iface) Send(frame []byte) error {
	if f.LinkOutput == nil {
		return errNoLinkOutput
	}
	return f.LinkOutput(f, frame)
}

// OnLink reports whether ip shares this interface's network prefix, per
// its configured netmask.
func (f *Iface) OnLink(ip [4]byte) bool {
	for i := range ip {
		if ip[i]&f.Netmask[i] != f.IP[i]&f.Netmask[i] {
			return false
		}
	}
	return true
}

// IsBroadcast reports whether ip is this interface's directed or
// limited broadcast address.
func (f *Iface) IsBroadcast(ip [4]byte) bool {
	if ip == [4]byte{0xff, 0xff, 0xff, 0xff} {
		return true
	}
	for i := range ip {
		if ip[i]&^f.Netmask[i] != 0xff&^f.Netmask[i] {
			return false
		}
		if ip[i]&f.Netmask[i] != f.IP[i]&f.Netmask[i] {
			return false
		}
	}
	return true
}

// IsMulticast reports whether ip is in the 224.0.0.0/4 multicast range.
func (f *Iface) IsMulticast(ip [4]byte) bool {
	return ip[0]&0xf0 == 0xe0
}

// Configured reports whether f has been given an address at all, as
// opposed to a freshly zero-valued Iface.
func (f *Iface) Configured() bool {
	return !internal.IsZeroed(f.IP)
}

// MulticastMAC maps an IPv4 multicast address to its RFC 1112 Ethernet
// multicast address (01:00:5e + low 23 bits of the group address).
func MulticastMAC(ip [4]byte) [6]byte {
	return [6]byte{0x01, 0x00, 0x5e, ip[1] & 0x7f, ip[2], ip[3]}
}

// NewFromSystemInterface builds an Iface from an operating-system
// network interface looked up by name, for use in demos and manual
// testing against a real link. IP/Netmask/Gateway must still be set by
// the caller; LinkOutput is left nil.
func NewFromSystemInterface(name string) (*Iface, error) {
	ifc, err := internal.InterfaceByName(name)
	if err != nil {
		return nil, fmt.Errorf("netif: %w", err)
	}
	if len(ifc.HardwareAddr) != 6 {
		return nil, fmt.Errorf("netif: interface %q has no 6-byte hardware address", name)
	}
	var f Iface
	f.Name = name
	copy(f.HWAddr[:], ifc.HardwareAddr)
	return &f, nil
}
