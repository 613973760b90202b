package arp

import (
	"testing"

	"github.com/gonetstack/etharp/ethernet"
	"github.com/gonetstack/etharp/netif"
	"github.com/gonetstack/etharp/pbuf"
)

// buildARPFrame constructs a full Ethernet+ARP frame as bytes, for
// feeding to ARPRx the way a driver's receive path would.
func buildARPFrame(t *testing.T, dstHW, srcHW [6]byte, op Operation, senderHW [6]byte, senderIP [4]byte, targetHW [6]byte, targetIP [4]byte) []byte {
	t.Helper()
	buf := make([]byte, ethernet.HeaderLen+sizeHeaderv4)
	efrm, err := ethernet.PrependHeader(buf[:ethernet.HeaderLen], dstHW, srcHW, ethernet.TypeARP)
	if err != nil {
		t.Fatal(err)
	}
	_ = efrm
	afrm, err := NewFrame(buf[ethernet.HeaderLen:])
	if err != nil {
		t.Fatal(err)
	}
	afrm.ClearHeader()
	afrm.SetHType(HTypeEthernet)
	afrm.SetPType(PTypeIPv4)
	afrm.SetHLenPLen(6, 4)
	afrm.SetOperation(op)
	afrm.SetSenderHW(senderHW)
	afrm.SetSenderIP(senderIP)
	afrm.SetTargetHW(targetHW)
	afrm.SetTargetIP(targetIP)
	return buf
}

func TestARPRxRequestForUsSendsReply(t *testing.T) {
	var sent [][]byte
	ourHW := [6]byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01}
	ourIP := [4]byte{192, 168, 1, 1}
	iface := &netif.Iface{
		IP:      ourIP,
		Netmask: [4]byte{255, 255, 255, 0},
		HWAddr:  ourHW,
		LinkOutput: func(_ *netif.Iface, frame []byte) error {
			cp := append([]byte(nil), frame...)
			sent = append(sent, cp)
			return nil
		},
	}
	var tbl Table
	tbl.Init(TableConfig{QueueEnabled: true})

	peerHW := [6]byte{0xc0, 0xff, 0xee, 0xc0, 0xff, 0xee}
	peerIP := [4]byte{192, 168, 1, 2}
	frame := buildARPFrame(t, ethernet.BroadcastAddr(), peerHW, OpRequest, peerHW, peerIP, [6]byte{}, ourIP)

	buf := pbuf.Take(frame)
	if err := tbl.ARPRx(iface, buf); err != nil {
		t.Fatal(err)
	}
	if len(sent) != 1 {
		t.Fatalf("want one reply sent, got %d", len(sent))
	}
	replyEfrm, err := ethernet.NewFrame(sent[0])
	if err != nil {
		t.Fatal(err)
	}
	if *replyEfrm.DestinationHardwareAddr() != peerHW {
		t.Fatalf("want reply addressed to %v, got %v", peerHW, *replyEfrm.DestinationHardwareAddr())
	}
	replyAfrm, err := NewFrame(replyEfrm.Payload())
	if err != nil {
		t.Fatal(err)
	}
	if replyAfrm.Operation() != OpReply {
		t.Fatalf("want OpReply, got %v", replyAfrm.Operation())
	}
	if *replyAfrm.SenderIP() != ourIP || *replyAfrm.SenderHW() != ourHW {
		t.Fatal("reply sender address mismatch")
	}

	mac, ok := tbl.Lookup(peerIP)
	if !ok || mac != peerHW {
		t.Fatalf("want cache updated from request sender, got %v ok=%v", mac, ok)
	}
}

func TestARPRxRequestNotForUsNoReply(t *testing.T) {
	var sent [][]byte
	iface := &netif.Iface{
		IP:      [4]byte{192, 168, 1, 1},
		Netmask: [4]byte{255, 255, 255, 0},
		HWAddr:  [6]byte{1},
		LinkOutput: func(_ *netif.Iface, frame []byte) error {
			sent = append(sent, frame)
			return nil
		},
	}
	var tbl Table
	tbl.Init(TableConfig{})

	frame := buildARPFrame(t, ethernet.BroadcastAddr(), [6]byte{2}, OpRequest,
		[6]byte{2}, [4]byte{192, 168, 1, 2}, [6]byte{}, [4]byte{192, 168, 1, 250})

	buf := pbuf.Take(frame)
	if err := tbl.ARPRx(iface, buf); err != nil {
		t.Fatal(err)
	}
	if len(sent) != 0 {
		t.Fatal("want no reply for a request not addressed to us")
	}
}

func TestIPRxDoesNotCreateEntryForForeignTraffic(t *testing.T) {
	iface := &netif.Iface{
		IP:      [4]byte{192, 168, 1, 1},
		Netmask: [4]byte{255, 255, 255, 0},
		HWAddr:  [6]byte{1},
	}
	var tbl Table
	tbl.Init(TableConfig{})

	peerHW := [6]byte{2}
	peerIP := [4]byte{192, 168, 1, 2}
	buf := make([]byte, ethernet.HeaderLen+20)
	_, err := ethernet.PrependHeader(buf[:ethernet.HeaderLen], iface.HWAddr, peerHW, ethernet.TypeIPv4)
	if err != nil {
		t.Fatal(err)
	}
	ip := buf[ethernet.HeaderLen:]
	ip[0] = 4<<4 | 5
	ip[2], ip[3] = 0, 20
	copy(ip[12:16], peerIP[:])
	copy(ip[16:20], []byte{192, 168, 1, 250}) // destined for someone else

	tbl.IPRx(iface, buf)
	if _, ok := tbl.Lookup(peerIP); ok {
		t.Fatal("want no cache entry created for traffic not addressed to us")
	}
}

func TestIPRxRefreshesExistingEntry(t *testing.T) {
	iface := &netif.Iface{
		IP:      [4]byte{192, 168, 1, 1},
		Netmask: [4]byte{255, 255, 255, 0},
		HWAddr:  [6]byte{1},
	}
	var tbl Table
	tbl.Init(TableConfig{MaxAgeStable: 5})

	peerIP := [4]byte{192, 168, 1, 2}
	oldMAC := [6]byte{0xAA}
	newMAC := [6]byte{0xBB}
	tbl.merge(iface, peerIP, oldMAC, true)
	tbl.Tick()

	buf := make([]byte, ethernet.HeaderLen+20)
	_, err := ethernet.PrependHeader(buf[:ethernet.HeaderLen], iface.HWAddr, newMAC, ethernet.TypeIPv4)
	if err != nil {
		t.Fatal(err)
	}
	ip := buf[ethernet.HeaderLen:]
	ip[0] = 4<<4 | 5
	ip[2], ip[3] = 0, 20
	copy(ip[12:16], peerIP[:])
	copy(ip[16:20], []byte{192, 168, 1, 250}) // destined for someone else: refresh only

	tbl.IPRx(iface, buf)
	mac, ok := tbl.Lookup(peerIP)
	if !ok {
		t.Fatal("existing entry should not have been removed")
	}
	if mac != newMAC {
		t.Fatalf("want refreshed mac %v, got %v", newMAC, mac)
	}
	if tbl.entries[tbl.findByIP(peerIP)].ctime != 0 {
		t.Fatal("want ctime reset by refresh")
	}
}

// TestFullExchange drives two independent Tables through a complete
// request/reply cycle over a pair of loopback-wired interfaces, the way
// two hosts on the same link would observe each other.
func TestFullExchange(t *testing.T) {
	var tbl1, tbl2 Table
	var iface1, iface2 *netif.Iface

	iface1 = &netif.Iface{
		IP:      [4]byte{192, 168, 1, 1},
		Netmask: [4]byte{255, 255, 255, 0},
		HWAddr:  [6]byte{1, 1, 1, 1, 1, 1},
		LinkOutput: func(_ *netif.Iface, frame []byte) error {
			cp := append([]byte(nil), frame...)
			return tbl2.ARPRx(iface2, pbuf.Take(cp))
		},
	}
	iface2 = &netif.Iface{
		IP:      [4]byte{192, 168, 1, 2},
		Netmask: [4]byte{255, 255, 255, 0},
		HWAddr:  [6]byte{2, 2, 2, 2, 2, 2},
		LinkOutput: func(_ *netif.Iface, frame []byte) error {
			cp := append([]byte(nil), frame...)
			return tbl1.ARPRx(iface1, pbuf.Take(cp))
		},
	}
	tbl1.Init(TableConfig{QueueEnabled: true})
	tbl2.Init(TableConfig{QueueEnabled: true})

	if err := tbl1.Query(iface1, iface2.IP, nil); err != nil {
		t.Fatal(err)
	}
	mac, ok := tbl1.Lookup(iface2.IP)
	if !ok || mac != iface2.HWAddr {
		t.Fatalf("want resolved mac %v, got %v ok=%v", iface2.HWAddr, mac, ok)
	}
	// iface2 should have learned iface1 from the request it answered.
	mac2, ok2 := tbl2.Lookup(iface1.IP)
	if !ok2 || mac2 != iface1.HWAddr {
		t.Fatalf("want iface2 to have learned iface1, got %v ok=%v", mac2, ok2)
	}
}
