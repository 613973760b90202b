package arp

import (
	"log/slog"

	"github.com/gonetstack/etharp/ethernet"
	"github.com/gonetstack/etharp/internal"
	"github.com/gonetstack/etharp/ipv4"
	"github.com/gonetstack/etharp/netif"
	"github.com/gonetstack/etharp/pbuf"
)

// IPRx inspects an Ethernet frame believed to carry an IPv4 datagram and
// opportunistically refreshes the cache with the sender's address pair.
// It never allocates, never modifies frame, and never takes ownership
// of it: frame continues on to the IP layer regardless of what IPRx
// does with it. A brand-new cache entry is only created when the
// datagram's destination is this interface's own address, matching
// etharp's resource-conserving snoop behavior: packets merely passing
// through only refresh an entry that already exists.
func (t *Table) IPRx(iface *netif.Iface, frame []byte) {
	efrm, err := ethernet.NewFrame(frame)
	if err != nil || efrm.EtherType() != ethernet.TypeIPv4 {
		return
	}
	ifrm, err := ipv4.NewFrame(efrm.Payload())
	if err != nil || ifrm.ValidateSize() != nil {
		return
	}
	if iface == nil || !iface.Configured() {
		return
	}
	srcIP := *ifrm.SourceAddr()
	if internal.IsZeroed(srcIP) || !iface.OnLink(srcIP) {
		return
	}
	forUs := *ifrm.DestinationAddr() == iface.IP
	t.merge(iface, srcIP, *efrm.SourceHardwareAddr(), forUs)
}

// ARPRx processes a received ARP packet: it updates the cache from the
// sender's address pair, answers requests addressed to us, and notifies
// an optional ProbeNotifier of replies addressed to us. ARPRx always
// consumes buf — it is freed exactly once, on every return path,
// regardless of outcome.
func (t *Table) ARPRx(iface *netif.Iface, buf *pbuf.Buffer) error {
	defer buf.Free()

	frame := buf.Payload()
	efrm, err := ethernet.NewFrame(frame)
	if err != nil {
		return ErrBuf
	}
	afrm, err := NewFrame(efrm.Payload())
	if err != nil {
		return ErrBuf
	}
	if err := afrm.ValidateSize(); err != nil {
		return ErrBuf
	}
	if iface == nil || !iface.Configured() {
		return ErrRte
	}
	if afrm.HType() != HTypeEthernet || afrm.PType() != PTypeIPv4 ||
		afrm.HLen() != 6 || afrm.PLen() != 4 {
		return ErrUnknownOp
	}

	senderIP := *afrm.SenderIP()
	senderHW := *afrm.SenderHW()
	targetIP := *afrm.TargetIP()
	forUs := targetIP == iface.IP

	if !internal.IsZeroed(senderIP) {
		// A sender IP of 0.0.0.0 marks an address probe (duplicate
		// address detection); it carries no usable binding and must
		// not be merged into the cache.
		t.merge(iface, senderIP, senderHW, forUs)
	}

	switch afrm.Operation() {
	case OpRequest:
		if !forUs {
			return nil
		}
		// Turn the received request into a reply in place: swap the
		// ARP sender/target fields and rewrite the existing Ethernet
		// header's addresses, reusing the same buffer rather than
		// allocating a new one.
		BuildReplyInPlace(afrm, iface.HWAddr)
		efrm.SetDestinationHardwareAddr(senderHW)
		efrm.SetSourceHardwareAddr(iface.HWAddr)
		if err := iface.Send(buf.Payload()); err != nil {
			t.log(slog.LevelWarn, "arp: failed to send reply", "err", err, internal.SlogAddr4("to", &senderIP))
			return ErrBuf
		}
		if t.cfg.Counters != nil {
			t.cfg.Counters.ReplySent()
		}
	case OpReply:
		if forUs && t.cfg.Probe != nil {
			t.cfg.Probe.ARPProbeReply(iface, senderIP)
		}
	default:
		return ErrUnknownOp
	}
	return nil
}

// sendRequest builds and transmits a broadcast ARP request asking who
// has dst, announcing iface's own address pair as sender.
func (t *Table) sendRequest(iface *netif.Iface, dst [4]byte) error {
	buf := pbuf.Alloc(ethernet.HeaderLen, sizeHeaderv4)
	defer buf.Free()
	if _, err := BuildRequest(buf.Payload(), iface.HWAddr, iface.IP, dst); err != nil {
		return err
	}
	ethHdr, err := buf.Prepend(ethernet.HeaderLen)
	if err != nil {
		return err
	}
	if _, err := ethernet.PrependHeader(ethHdr, ethernet.BroadcastAddr(), iface.HWAddr, ethernet.TypeARP); err != nil {
		return err
	}
	return iface.Send(buf.Payload())
}

// Output frames pkt for transmission to dst, resolving dst's MAC address
// via broadcast/multicast rules, the on-link/gateway decision, and
// finally the ARP cache. Output always takes ownership of pkt: every
// return path frees it exactly once, whether directly or, in the
// unresolved unicast case, by handing it to Query.
func (t *Table) Output(iface *netif.Iface, dst [4]byte, pkt *pbuf.Buffer) error {
	if iface == nil || !iface.Configured() {
		pkt.Free()
		return ErrRte
	}
	// dst == 0.0.0.0 is the wildcard broadcast address: distinct from
	// IsBroadcast's limited/subnet-directed broadcasts, but it must
	// route the same way, straight to the Ethernet broadcast MAC,
	// never through the cache or a gateway.
	if dst == ([4]byte{}) || iface.IsBroadcast(dst) {
		return t.sendDirect(iface, pkt, ethernet.BroadcastAddr())
	}
	if iface.IsMulticast(dst) {
		return t.sendDirect(iface, pkt, netif.MulticastMAC(dst))
	}
	nexthop := dst
	if !iface.OnLink(dst) {
		if iface.Gateway == ([4]byte{}) {
			pkt.Free()
			return ErrRte
		}
		nexthop = iface.Gateway
	}
	if mac, ok := t.Lookup(nexthop); ok {
		return t.sendDirect(iface, pkt, mac)
	}
	// Unresolved: Query takes ownership of pkt from here. This returns
	// Query's result directly rather than falling through to a shared
	// "destination known" block, the fix for the original's aliasing
	// bug in the equivalent unicast-unresolved branch.
	return t.Query(iface, nexthop, pkt)
}

func (t *Table) sendDirect(iface *netif.Iface, pkt *pbuf.Buffer, dstMAC [6]byte) error {
	ethHdr, err := pkt.Prepend(ethernet.HeaderLen)
	if err != nil {
		pkt.Free()
		return ErrBuf
	}
	if _, err := ethernet.PrependHeader(ethHdr, dstMAC, iface.HWAddr, ethernet.TypeIPv4); err != nil {
		pkt.Free()
		return ErrBuf
	}
	sendErr := iface.Send(pkt.Payload())
	pkt.Free()
	if sendErr != nil {
		return ErrBuf
	}
	return nil
}

// Query unconditionally broadcasts an ARP request for dst — every call
// emits a fresh solicitation, whether or not a cache entry for dst
// already exists, so that a caller retransmitting an unanswered
// request (this module runs no internal retry of its own; that is the
// caller's responsibility) actually gets a new broadcast out of it —
// and then locates or creates the corresponding PENDING entry,
// optionally attaching pkt to it so it can be flushed once a reply
// arrives (if the entry is already STABLE, pkt is sent at once
// instead). pkt may be nil, e.g. for a standalone (gratuitous) query. A
// transient failure to send the request is logged but does not abort
// the call: the entry is still created/located and pkt still handled,
// matching etharp_query's own request-first, entry-second ordering.
//
// At most one packet may be queued per entry (this module never
// retries an unanswered request, so a second packet arriving for the
// same still-PENDING destination has nothing new to wait for): when
// queueing is disabled, or a packet is already queued, pkt is freed and
// ErrBufFull is returned rather than silently dropping it.
func (t *Table) Query(iface *netif.Iface, dst [4]byte, pkt *pbuf.Buffer) error {
	if iface == nil || !iface.Configured() {
		if pkt != nil {
			pkt.Free()
		}
		return ErrRte
	}

	if err := t.sendRequest(iface, dst); err != nil {
		t.log(slog.LevelWarn, "arp: failed to send request", "err", err, internal.SlogAddr4("who_has", &dst))
	} else if t.cfg.Counters != nil {
		t.cfg.Counters.RequestSent()
	}

	if internal.IsZeroed(dst) {
		// 0.0.0.0 never gets a cache entry (mirrors merge's own guard):
		// there is nothing to resolve it to, so the request above is all
		// that happens, and pkt has nothing to wait on.
		if pkt != nil {
			pkt.Free()
		}
		return nil
	}

	idx := t.findByIP(dst)
	if idx < 0 {
		idx = t.findSlot()
		if idx < 0 {
			if pkt != nil {
				pkt.Free()
				if t.cfg.Counters != nil {
					t.cfg.Counters.PacketDropped("no slot")
				}
			}
			return ErrMem
		}
		if t.entries[idx].state == StateStable && t.cfg.Counters != nil {
			t.cfg.Counters.EntryRecycled()
		}
		t.entries[idx] = entry{state: StatePending, ip: dst, iface: iface}
	}

	e := &t.entries[idx]
	if pkt == nil {
		return nil
	}
	switch e.state {
	case StateStable:
		// Already resolved: nothing to wait for, so pkt is framed with
		// the cached MAC and sent immediately.
		return t.sendDirect(iface, pkt, e.mac)
	case StatePending:
		if e.queued != nil || !t.cfg.QueueEnabled {
			pkt.Free()
			if t.cfg.Counters != nil {
				t.cfg.Counters.PacketDropped("queue full or disabled")
			}
			return ErrBufFull
		}
		e.queued = pkt
		e.iface = iface
		if t.cfg.Counters != nil {
			t.cfg.Counters.PacketQueued()
		}
		return nil
	default:
		pkt.Free()
		return ErrRte
	}
}
