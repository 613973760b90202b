package arp

import "github.com/gonetstack/etharp/ethernet"

const (
	sizeHeader   = 8                     // htype,ptype,hlen,plen,oper
	sizeHeaderv4 = sizeHeader + 2*6 + 2*4 // full ARP packet for IPv4-over-Ethernet
)

// Operation is the ARP header's operation field.
type Operation uint16

const (
	OpRequest Operation = 1
	OpReply   Operation = 2
)

func (op Operation) String() string {
	switch op {
	case OpRequest:
		return "request"
	case OpReply:
		return "reply"
	default:
		return "unknown"
	}
}

// HTypeEthernet is the ARP hardware-type value for Ethernet, the only
// link type this module speaks.
const HTypeEthernet uint16 = 1

// PTypeIPv4 is the ARP protocol-type value for IPv4, expressed as the
// EtherType used for IPv4 payloads.
const PTypeIPv4 = ethernet.TypeIPv4
