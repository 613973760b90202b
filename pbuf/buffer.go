// Package pbuf provides a minimal, single-segment packet buffer.
//
// A production IP stack owns its own chained allocator (lwIP's pbuf,
// for instance); this package is a reference implementation of the
// same contract — headroom for prepending lower-layer headers, a single
// free/take lifecycle, no implicit copies — sized for exercising and
// testing the ARP module in isolation.
package pbuf

import "errors"

var (
	// ErrNoHeadroom is returned by Prepend when the buffer does not have
	// enough reserved space before its current payload.
	ErrNoHeadroom = errors.New("pbuf: not enough headroom")
)

// Buffer is a single contiguous packet buffer with headroom reserved at
// the front so that link-layer headers can be prepended without a copy.
type Buffer struct {
	data []byte
	off  int // start of current payload within data
	end  int // end of current payload within data
}

// Alloc returns a Buffer sized for size bytes of payload with headroom
// bytes of reserved space in front of it, e.g. for an Ethernet header.
func Alloc(headroom, size int) *Buffer {
	data := make([]byte, headroom+size)
	return &Buffer{data: data, off: headroom, end: headroom + size}
}

// Take wraps an existing slice as a Buffer with no headroom. Used when a
// caller already owns a fully-formed frame and only needs the Buffer
// interface to hand it to ARPRx. Output and Query need headroom for an
// Ethernet header, so a Buffer from Take cannot be sent through them.
func Take(buf []byte) *Buffer {
	return &Buffer{data: buf, off: 0, end: len(buf)}
}

// Len returns the number of bytes of current payload.
func (b *Buffer) Len() int { return b.end - b.off }

// Payload returns the current payload, excluding any reserved headroom.
func (b *Buffer) Payload() []byte { return b.data[b.off:b.end] }

// Headroom returns the number of bytes currently reserved before the payload.
func (b *Buffer) Headroom() int { return b.off }

// Prepend grows the payload backwards into the reserved headroom by n
// bytes and returns the now-included header region, or ErrNoHeadroom if
// there isn't enough room.
func (b *Buffer) Prepend(n int) ([]byte, error) {
	if n > b.off {
		return nil, ErrNoHeadroom
	}
	b.off -= n
	return b.data[b.off : b.off+n], nil
}

// Free releases the buffer's backing storage. A reference implementation
// running under the Go garbage collector has nothing to do here beyond
// making reuse-after-free detectable; a pool-backed allocator would
// return data to its pool in this method instead.
func (b *Buffer) Free() {
	b.data = nil
	b.off, b.end = 0, 0
}
