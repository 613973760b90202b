package arp

import (
	"testing"

	"github.com/gonetstack/etharp/ethernet"
)

func TestBuildRequestAndReply(t *testing.T) {
	var buf [sizeHeaderv4]byte
	srcHW := [6]byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01}
	srcIP := [4]byte{192, 168, 1, 1}
	dstIP := [4]byte{192, 168, 1, 2}

	afrm, err := BuildRequest(buf[:], srcHW, srcIP, dstIP)
	if err != nil {
		t.Fatal(err)
	}
	if err := afrm.ValidateSize(); err != nil {
		t.Fatal(err)
	}
	if afrm.Operation() != OpRequest {
		t.Fatalf("want OpRequest, got %v", afrm.Operation())
	}
	if *afrm.SenderIP() != srcIP {
		t.Fatalf("want sender IP %v, got %v", srcIP, *afrm.SenderIP())
	}
	if *afrm.TargetIP() != dstIP {
		t.Fatalf("want target IP %v, got %v", dstIP, *afrm.TargetIP())
	}
	if *afrm.TargetHW() != ([6]byte{}) {
		t.Fatal("want zeroed target hardware address in a request")
	}
	if afrm.PType() != ethernet.TypeIPv4 {
		t.Fatalf("want PType IPv4, got %v", afrm.PType())
	}

	replyHW := [6]byte{0xc0, 0xff, 0xee, 0xc0, 0xff, 0xee}
	BuildReplyInPlace(afrm, replyHW)
	if afrm.Operation() != OpReply {
		t.Fatalf("want OpReply, got %v", afrm.Operation())
	}
	if *afrm.SenderHW() != replyHW {
		t.Fatalf("want sender hardware %v, got %v", replyHW, *afrm.SenderHW())
	}
	if *afrm.SenderIP() != dstIP {
		t.Fatalf("want sender IP to have become original target %v, got %v", dstIP, *afrm.SenderIP())
	}
	if *afrm.TargetHW() != srcHW {
		t.Fatalf("want target hardware to have become original sender %v, got %v", srcHW, *afrm.TargetHW())
	}
	if *afrm.TargetIP() != srcIP {
		t.Fatalf("want target IP to have become original sender %v, got %v", srcIP, *afrm.TargetIP())
	}
}

func TestNewFrameShort(t *testing.T) {
	var buf [10]byte
	if _, err := NewFrame(buf[:]); err == nil {
		t.Fatal("want error for too-short buffer")
	}
}
