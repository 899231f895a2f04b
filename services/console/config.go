// services/console/config.go
package console

import (
	"console-go/types"
	"console-go/x/mathx"
)

const (
	defaultBaud     = 115200
	defaultRXBuffer = 16

	// RX buffer bounds; the capacity is also aligned down to 4 bytes by
	// the ring itself.
	minRXBuffer = 8
	maxRXBuffer = 1024
)

// Config is fixed at construction; the console does not support runtime
// reconfiguration or resizing.
type Config struct {
	Format   types.SerialFormat `json:"format"`
	RXBuffer int                `json:"rx_buffer"` // bytes
}

// withDefaults fills zero values with the reference configuration
// (115200 8N1, 16-byte receive buffer) and clamps the buffer size.
func (c Config) withDefaults() Config {
	if c.Format.Baud == 0 {
		c.Format.Baud = defaultBaud
	}
	if c.Format.DataBits == 0 {
		c.Format.DataBits = 8
	}
	if c.Format.StopBits == 0 {
		c.Format.StopBits = 1
	}
	if c.RXBuffer == 0 {
		c.RXBuffer = defaultRXBuffer
	}
	c.RXBuffer = mathx.Clamp(c.RXBuffer, minRXBuffer, maxRXBuffer)
	return c
}
