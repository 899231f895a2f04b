// services/console/port.go
package console

import "console-go/types"

// PortConfig carries the framing a port is configured with.
type PortConfig struct {
	Format types.SerialFormat
}

// Port is the register-level view of a serial peripheral. Implementations
// live in internal/platform; the console only ever talks to the hardware
// through this surface.
type Port interface {
	// Configure applies baud and framing and prepares both directions.
	// A rejected configuration is unrecoverable at this layer.
	Configure(cfg PortConfig) error

	// ReceiveReady reports the receive-data-ready flag.
	ReceiveReady() bool

	// ReadData reads the data register, consuming one received byte and
	// clearing the ready flag if no more data is pending. Only meaningful
	// when ReceiveReady reported true.
	ReadData() byte

	// WriteData transmits one byte, busy-waiting until the hardware
	// accepts it or a short bounded timeout expires.
	WriteData(b byte) error

	// EnableReceiveInterrupt registers fn as the receive interrupt handler
	// and unmasks the interrupt at the platform's console priority. fn runs
	// in interrupt context: it must not block or allocate.
	EnableReceiveInterrupt(fn func()) error

	// DisableReceiveInterrupt masks the receive interrupt.
	DisableReceiveInterrupt()
}
