package arp

import (
	"context"
	"log/slog"

	"github.com/gonetstack/etharp/ethernet"
	"github.com/gonetstack/etharp/internal"
	"github.com/gonetstack/etharp/netif"
	"github.com/gonetstack/etharp/pbuf"
)

// TableSize is the fixed number of entries the cache holds. The table is
// a flat array scanned linearly — there is no secondary index — which
// keeps the module's worst-case memory bound exact and its code free of
// allocation on every hot path.
const TableSize = 10

// Default aging thresholds, in Tick calls, matching etharp's
// ARP_MAXAGE/ARP_MAXPENDING defaults for a 10-second timer period.
const (
	DefaultMaxAgeStable  = 120
	DefaultMaxAgePending = 1
)

// State is the lifecycle stage of a cache entry.
type State uint8

const (
	// StateEmpty entries have no address information and are available
	// for reuse without displacing anything.
	StateEmpty State = iota
	// StatePending entries have an IP address and an outstanding
	// request; at most one packet may be queued against them.
	StatePending
	// StateStable entries have a resolved, usable MAC address.
	StateStable
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "EMPTY"
	case StatePending:
		return "PENDING"
	case StateStable:
		return "STABLE"
	default:
		return "INVALID"
	}
}

type entry struct {
	state  State
	ip     [4]byte
	mac    [6]byte
	ctime  uint32
	queued *pbuf.Buffer
	iface  *netif.Iface
}

// ProbeNotifier is the optional DHCP-address-probe collaborator. When
// configured, ARPRx calls ARPProbeReply for every reply frame addressed
// to us, letting an address-conflict-detection routine inspect replies
// during probing without the cache table taking any special action.
type ProbeNotifier interface {
	ARPProbeReply(iface *netif.Iface, senderIP [4]byte)
}

// Counters is the optional statistics collaborator. A Table with no
// Counters configured simply skips every call site.
type Counters interface {
	EntryExpired(wasPending bool)
	EntryRecycled()
	RequestSent()
	ReplySent()
	PacketQueued()
	PacketDropped(reason string)
}

// TableConfig holds the Table's tunables and optional collaborators.
// Init replaces a zero MaxAgeStable or MaxAgePending with its default;
// every other field is usable at its zero value.
type TableConfig struct {
	// MaxAgeStable is the number of Tick calls a STABLE entry survives
	// without being refreshed before it expires back to EMPTY. Zero
	// means DefaultMaxAgeStable.
	MaxAgeStable uint32
	// MaxAgePending is the number of Tick calls a PENDING entry
	// survives without an answer before it expires. There is no
	// internal retry of the request: once a PENDING entry ages out its
	// queued packet, if any, is dropped. Zero means DefaultMaxAgePending.
	MaxAgePending uint32
	// QueueEnabled controls whether Query may attach a packet to a
	// PENDING entry while waiting for a reply. Disabling it matches
	// etharp's ARP_QUEUEING=0 build option.
	QueueEnabled bool
	// Logger receives best-effort diagnostic messages. Nil disables
	// logging entirely.
	Logger *slog.Logger
	// LogAllocs, if set, makes Tick report heap growth since the previous
	// Tick via internal.LogAllocs. Meant for catching an accidental
	// allocation on what is supposed to be an allocation-free hot path;
	// leave unset outside of development.
	LogAllocs bool
	// Counters receives optional statistics callbacks. Nil disables them.
	Counters Counters
	// Probe is notified of every reply frame addressed to us. Nil
	// disables the DHCP-address-probe hook.
	Probe ProbeNotifier
}

// Table is the fixed-size ARP cache plus the protocol logic built on
// top of it. The zero value is not ready to use; call Init first.
//
// Table is not safe for concurrent use: the host stack must serialize
// calls to Init, Tick, IPRx, ARPRx, Output and Query, matching the
// single-threaded cooperative model the rest of this module assumes.
type Table struct {
	entries [TableSize]entry
	cfg     TableConfig
}

// Init resets t to an empty cache with the given configuration.
func (t *Table) Init(cfg TableConfig) {
	if cfg.MaxAgeStable == 0 {
		cfg.MaxAgeStable = DefaultMaxAgeStable
	}
	if cfg.MaxAgePending == 0 {
		cfg.MaxAgePending = DefaultMaxAgePending
	}
	*t = Table{cfg: cfg}
}

func (t *Table) log(level slog.Level, msg string, args ...any) {
	if t.cfg.Logger == nil {
		return
	}
	t.cfg.Logger.Log(context.Background(), level, msg, args...)
}

// Tick ages every non-EMPTY entry by one period. STABLE entries that
// reach MaxAgeStable, and PENDING entries that reach MaxAgePending,
// expire back to EMPTY; a PENDING entry's queued packet, if any, is
// freed and counted as dropped, since this module never internally
// retries an unanswered request.
func (t *Table) Tick() {
	if t.cfg.LogAllocs {
		internal.LogAllocs("arp: tick")
	}
	for i := range t.entries {
		e := &t.entries[i]
		if e.state == StateEmpty {
			continue
		}
		e.ctime++
		switch e.state {
		case StateStable:
			if e.ctime >= t.cfg.MaxAgeStable {
				t.expire(e, false)
			}
		case StatePending:
			if e.ctime >= t.cfg.MaxAgePending {
				t.expire(e, true)
			}
		}
	}
}

func (t *Table) expire(e *entry, wasPending bool) {
	if e.queued != nil {
		e.queued.Free()
		e.queued = nil
		if t.cfg.Counters != nil {
			t.cfg.Counters.PacketDropped("entry expired")
		}
	}
	*e = entry{}
	if t.cfg.Counters != nil {
		t.cfg.Counters.EntryExpired(wasPending)
	}
}

// findByIP returns the index of the entry matching ip, or -1.
func (t *Table) findByIP(ip [4]byte) int {
	for i := range t.entries {
		if t.entries[i].state != StateEmpty && t.entries[i].ip == ip {
			return i
		}
	}
	return -1
}

// findSlot returns the index of an entry available for a new IP address,
// or -1 if the table is full of PENDING entries. It prefers an EMPTY
// entry; failing that, it recycles the STABLE entry with the largest
// ctime (oldest since last refresh), breaking ties in favor of the
// later index. PENDING entries are never recycled: doing so would
// discard an in-flight request and its queued packet.
func (t *Table) findSlot() int {
	for i := range t.entries {
		if t.entries[i].state == StateEmpty {
			return i
		}
	}
	oldest := -1
	for i := range t.entries {
		if t.entries[i].state != StateStable {
			continue
		}
		if oldest == -1 || t.entries[i].ctime >= t.entries[oldest].ctime {
			oldest = i
		}
	}
	return oldest
}

// merge updates or creates the cache entry for ip, recording it as
// reachable via mac on iface. If no entry for ip exists and
// insertAllowed is false, merge does nothing. A PENDING entry being
// merged transitions to STABLE and, if it has a queued packet, flushes
// it exactly once through the LinkOutput of the interface the packet was
// queued on (not necessarily iface). ip == 0.0.0.0 never names a
// real binding (it marks an address probe at the ARP layer, and is
// filtered before IPv4 ever reaches us); merge enforces this itself
// rather than trusting callers to have already filtered it out.
func (t *Table) merge(iface *netif.Iface, ip [4]byte, mac [6]byte, insertAllowed bool) Err {
	if internal.IsZeroed(ip) {
		return 0
	}
	if idx := t.findByIP(ip); idx >= 0 {
		e := &t.entries[idx]
		wasPending := e.state == StatePending
		qIface := e.iface
		e.mac = mac
		e.ctime = 0
		e.state = StateStable
		e.iface = iface
		if wasPending && e.queued != nil {
			q := e.queued
			e.queued = nil
			ethHdr, err := q.Prepend(ethernet.HeaderLen)
			if err != nil {
				t.log(slog.LevelWarn, "arp: no headroom to flush queued packet", "err", err, internal.SlogAddr4("ip", &ip))
			} else if _, err := ethernet.PrependHeader(ethHdr, mac, qIface.HWAddr, ethernet.TypeIPv4); err != nil {
				t.log(slog.LevelWarn, "arp: failed to frame queued packet", "err", err, internal.SlogAddr6("mac", &mac))
			} else if err := qIface.Send(q.Payload()); err != nil {
				t.log(slog.LevelWarn, "arp: flush of queued packet failed", "err", err, internal.SlogAddr4("ip", &ip))
			}
			q.Free()
		}
		return 0
	}
	if !insertAllowed {
		return 0
	}
	idx := t.findSlot()
	if idx < 0 {
		if t.cfg.Counters != nil {
			t.cfg.Counters.PacketDropped("table full of pending entries")
		}
		return ErrMem
	}
	if t.entries[idx].state == StateStable && t.cfg.Counters != nil {
		t.cfg.Counters.EntryRecycled()
	}
	t.entries[idx] = entry{
		state: StateStable,
		ip:    ip,
		mac:   mac,
		ctime: 0,
		iface: iface,
	}
	return 0
}

// Lookup returns the MAC address cached for ip and whether it is
// currently STABLE (resolved and usable).
func (t *Table) Lookup(ip [4]byte) (mac [6]byte, ok bool) {
	idx := t.findByIP(ip)
	if idx < 0 || t.entries[idx].state != StateStable {
		return [6]byte{}, false
	}
	return t.entries[idx].mac, true
}

// EntrySnapshot is a copy of one non-EMPTY cache entry, as written by
// Snapshot; most useful for tests and diagnostics.
type EntrySnapshot struct {
	State State
	IP    [4]byte
	MAC   [6]byte
	Age   uint32
}

// Snapshot copies the current table contents into dst, returning the
// number of non-EMPTY entries written. dst must have room for at least
// TableSize entries to avoid truncation.
func (t *Table) Snapshot(dst []EntrySnapshot) int {
	n := 0
	for i := range t.entries {
		e := &t.entries[i]
		if e.state == StateEmpty || n >= len(dst) {
			continue
		}
		dst[n] = EntrySnapshot{State: e.state, IP: e.ip, MAC: e.mac, Age: e.ctime}
		n++
	}
	return n
}
