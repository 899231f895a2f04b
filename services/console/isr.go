// services/console/isr.go
package console

// onReceiveInterrupt services one receive interrupt: it drains the whole
// burst from the port, then signals the wait primitive once. One signal per
// invocation, not per byte — a woken consumer re-checks the ring, so a burst
// of queued bytes needs no further wake-ups.
//
// Runs in interrupt context. It must not block, allocate, or write to the
// console (the transmit path shares the peripheral being serviced).
func (c *Console) onReceiveInterrupt() {
	for c.port.ReceiveReady() {
		b := c.port.ReadData()
		c.received.Add(1)
		if !c.ring.Put(b) {
			// Ring full: the newest byte is dropped, older data wins.
			c.dropped.Add(1)
		}
	}
	c.rxSem.Release()
}
