// Command etharpdemo issues an ARP query for a single IPv4 address on a
// named local interface, in the shape of arpc from
// github.com/caser789/arp, but driving this module's Table directly
// instead of opening a live socket — useful for exercising Query/Tick
// against a real interface's hardware address without a privileged
// raw-socket send path. Frames are only logged, never transmitted, and
// nothing feeds received ARP traffic back into the Table, so the lookup
// does not resolve: the command exits with a timeout after 10 seconds.
package main

import (
	"flag"
	"log"
	"log/slog"
	"net/netip"
	"os"
	"time"

	"github.com/gonetstack/etharp/arp"
	"github.com/gonetstack/etharp/arpmetrics"
	"github.com/gonetstack/etharp/netif"
)

var (
	ifaceFlag = flag.String("i", "eth0", "network interface to resolve from")
	ipFlag    = flag.String("ip", "", "IPv4 address to resolve")
	srcFlag   = flag.String("src", "", "this host's IPv4 address on the interface")
	tickFlag  = flag.Duration("tick", 1*time.Second, "aging tick period")
)

func main() {
	flag.Parse()
	lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	dst, err := netip.ParseAddr(*ipFlag)
	if err != nil || !dst.Is4() {
		log.Fatalf("bad -ip: %v", err)
	}
	src, err := netip.ParseAddr(*srcFlag)
	if err != nil || !src.Is4() {
		log.Fatalf("bad -src: %v", err)
	}

	iface, err := netif.NewFromSystemInterface(*ifaceFlag)
	if err != nil {
		log.Fatal(err)
	}
	iface.IP = src.As4()
	iface.Netmask = [4]byte{255, 255, 255, 0}
	iface.LinkOutput = func(_ *netif.Iface, frame []byte) error {
		lg.Debug("would transmit frame", slog.Int("len", len(frame)))
		return nil
	}

	var tbl arp.Table
	tbl.Init(arp.TableConfig{
		Logger:   lg,
		Counters: arpmetrics.Counters{},
	})

	dstArr := dst.As4()
	if err := tbl.Query(iface, dstArr, nil); err != nil {
		log.Fatal(err)
	}

	ticker := time.NewTicker(*tickFlag)
	defer ticker.Stop()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if mac, ok := tbl.Lookup(dstArr); ok {
			lg.Info("resolved", slog.String("ip", dst.String()), slog.String("mac", macString(mac)))
			return
		}
		<-ticker.C
		tbl.Tick()
	}
	log.Fatal("timed out waiting for a reply")
}

func macString(mac [6]byte) string {
	buf := make([]byte, 0, 17)
	for i, b := range mac {
		if i != 0 {
			buf = append(buf, ':')
		}
		const hex = "0123456789abcdef"
		buf = append(buf, hex[b>>4], hex[b&0xf])
	}
	return string(buf)
}
