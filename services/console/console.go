// services/console/console.go

// Package console implements an interrupt-driven serial console: a
// fixed-capacity receive ring fed by the port's receive interrupt and
// drained by blocking reads, with synchronous byte-at-a-time transmit.
package console

import (
	"context"
	"sync/atomic"

	"console-go/errcode"
	"console-go/types"
	"console-go/x/ringbuf"
	"console-go/x/sem"
	"console-go/x/timex"
)

// Console owns the receive ring, the wait primitive and the port handle.
// Construct once with New, call Init exactly once before any other method.
type Console struct {
	port Port
	cfg  Config

	ring  *ringbuf.Ring
	rxSem *sem.Counting

	received  atomic.Uint32 // bytes drained from the port
	dropped   atomic.Uint32 // newest bytes discarded on overflow
	delivered atomic.Uint32 // bytes handed to consumers

	ready bool
}

func New(port Port, cfg Config) *Console {
	return &Console{port: port, cfg: cfg.withDefaults()}
}

// Init configures the receive ring and wait primitive, then the port, and
// only then enables the receive interrupt. The ordering matters: the handler
// observes the ring and semaphore, so both must be fully constructed before
// the first interrupt can fire.
func (c *Console) Init() error {
	if c.ready {
		return &errcode.E{C: errcode.InvalidParams, Op: "console.Init", Msg: "already initialised"}
	}

	c.ring = ringbuf.New(make([]byte, c.cfg.RXBuffer))
	c.rxSem = sem.NewCounting()

	if err := c.port.Configure(PortConfig{Format: c.cfg.Format}); err != nil {
		return &errcode.E{C: errcode.PortConfig, Op: "console.Init", Err: err}
	}
	if err := c.port.EnableReceiveInterrupt(c.onReceiveInterrupt); err != nil {
		return &errcode.E{C: errcode.PortConfig, Op: "console.Init", Err: err}
	}
	c.ready = true
	return nil
}

// Close masks the receive interrupt. Buffered bytes remain readable.
func (c *Console) Close() error {
	if c.ready {
		c.port.DisableReceiveInterrupt()
		c.ready = false
	}
	return nil
}

// GetChar returns one received byte, blocking forever until data arrives.
// It never reports "no data" to its caller.
func (c *Console) GetChar() byte {
	for {
		if b, ok := c.ring.Get(); ok {
			c.delivered.Add(1)
			return b
		}
		c.rxSem.TakeForever()
	}
}

// GetCharContext is GetChar with cancellation, for callers that need a
// shutdown path. The wake protocol is identical: pop, wait, re-check.
func (c *Console) GetCharContext(ctx context.Context) (byte, error) {
	for {
		if b, ok := c.ring.Get(); ok {
			c.delivered.Add(1)
			return b, nil
		}
		if err := c.rxSem.Take(ctx); err != nil {
			return 0, err
		}
	}
}

// PutString transmits s byte-at-a-time, emitting a carriage return before
// every line feed so terminals render plain "\n" text correctly. Each byte
// blocks on a short hardware timeout; there is no transmit buffering.
func (c *Console) PutString(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			if err := c.port.WriteData('\r'); err != nil {
				return err
			}
		}
		if err := c.port.WriteData(s[i]); err != nil {
			return err
		}
	}
	return nil
}

// ---------------- machine.UART-compatible surface ----------------

var errBufferEmpty = errcode.Code("buffer_empty")

// Buffered returns the number of bytes waiting in the receive ring.
func (c *Console) Buffered() int { return c.ring.Len() }

// ReadByte reads a single byte without blocking.
func (c *Console) ReadByte() (byte, error) {
	if b, ok := c.ring.Get(); ok {
		c.delivered.Add(1)
		return b, nil
	}
	return 0, errBufferEmpty
}

// Read copies up to len(p) already-buffered bytes. It never blocks; a
// return of 0 means "no data now".
func (c *Console) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		b, ok := c.ring.Get()
		if !ok {
			break
		}
		p[n] = b
		n++
	}
	if n > 0 {
		c.delivered.Add(uint32(n))
	}
	return n, nil
}

// Write transmits p with the same line-ending normalisation as PutString.
func (c *Console) Write(p []byte) (int, error) {
	for i, b := range p {
		if b == '\n' {
			if err := c.port.WriteData('\r'); err != nil {
				return i, err
			}
		}
		if err := c.port.WriteData(b); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// WriteByte transmits one byte verbatim (no normalisation).
func (c *Console) WriteByte(b byte) error {
	return c.port.WriteData(b)
}

// Stats returns a snapshot of the receive-path counters.
func (c *Console) Stats() types.ConsoleStats {
	return types.ConsoleStats{
		Received:  c.received.Load(),
		Dropped:   c.dropped.Load(),
		Delivered: c.delivered.Load(),
		Buffered:  c.ring.Len(),
		TS:        timex.NowMs(),
	}
}
