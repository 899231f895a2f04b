package ringbuf

import (
	"sync/atomic"

	"console-go/x/mathx"
)

// State classifies ring occupancy. HalfFull is any state that is neither
// completely empty nor completely full.
type State uint8

const (
	Empty State = iota
	Full
	HalfFull
)

// align is the natural alignment the usable capacity is rounded down to.
const align = 4

// Each cursor packs a buffer index with a mirror flag in one 32-bit word.
// The mirror flag flips every time the index wraps past the end of the pool,
// which is what disambiguates "indexes equal, empty" from "indexes equal,
// full" without sacrificing a slot.
const mirrorBit uint32 = 1 << 31

func index(c uint32) uint32 { return c &^ mirrorBit }

func advance(c, size uint32) uint32 {
	if index(c) == size-1 {
		// wrap: index back to 0, mirror flipped
		return (c ^ mirrorBit) & mirrorBit
	}
	return c + 1
}

// Ring is a single-producer, single-consumer byte ring over a caller-lent
// pool. The producer touches only wr, the consumer only rd; each side
// publishes its whole cursor (index + mirror) with a single atomic store, so
// no lock is needed.
type Ring struct {
	pool []byte
	size uint32

	rd atomic.Uint32 // consumer cursor
	wr atomic.Uint32 // producer cursor
}

// New wraps pool in a ring. The usable capacity is len(pool) aligned down to
// 4 bytes. Panics if the pool cannot hold at least one aligned unit; a ring
// without storage is a programming error, not a runtime condition.
func New(pool []byte) *Ring {
	size := mathx.AlignDown(len(pool), align)
	if pool == nil || size <= 0 {
		panic("ringbuf: pool must provide at least 4 bytes")
	}
	return &Ring{pool: pool, size: uint32(size)}
}

// Cap returns the usable capacity in bytes.
func (r *Ring) Cap() int { return int(r.size) }

// Status reports Empty, Full or HalfFull. Equal indexes with equal mirrors
// mean empty; equal indexes with differing mirrors mean full.
func (r *Ring) Status() State {
	rd := r.rd.Load()
	wr := r.wr.Load()
	if index(rd) == index(wr) {
		if rd == wr {
			return Empty
		}
		return Full
	}
	return HalfFull
}

// Len returns the number of buffered bytes.
func (r *Ring) Len() int {
	rd := r.rd.Load()
	wr := r.wr.Load()
	ri := index(rd)
	wi := index(wr)
	if ri == wi {
		if rd == wr {
			return 0
		}
		return int(r.size)
	}
	if wi > ri {
		return int(wi - ri)
	}
	return int(r.size - (ri - wi))
}

// Space returns the number of free bytes.
func (r *Ring) Space() int { return int(r.size) - r.Len() }

// Put stores one byte. It returns false when the ring is full — backpressure
// the producer is expected to act on, not an error. Never blocks, never
// allocates; safe to call from interrupt context.
func (r *Ring) Put(b byte) bool {
	if r.Space() == 0 {
		return false
	}
	wr := r.wr.Load()
	r.pool[index(wr)] = b
	r.wr.Store(advance(wr, r.size)) // data write happens-before cursor publish
	return true
}

// Get removes and returns one byte. It returns false when the ring is empty.
// Never blocks.
func (r *Ring) Get() (byte, bool) {
	if r.Len() == 0 {
		return 0, false
	}
	rd := r.rd.Load()
	b := r.pool[index(rd)]
	r.rd.Store(advance(rd, r.size))
	return b, true
}
