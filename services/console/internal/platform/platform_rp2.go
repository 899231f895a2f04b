// services/console/internal/platform/platform_rp2.go
//go:build rp2040 || rp2350

package platform

import (
	"device/rp"
	"runtime/interrupt"
	"time"

	"machine"

	"console-go/errcode"
	"console-go/services/console"
	"console-go/types"
)

// Mid-range preemption priority for the console receive interrupt.
const rxIRQPriority = 0x80

// Per-byte transmit timeout; transmit is synchronous and the FIFO drains at
// wire speed, so anything longer than a couple of character times is a fault.
const txByteTimeout = time.Millisecond

// PL011Port drives one RP2 PL011 through console.Port. No software TX
// buffering; the receive interrupt is installed by EnableReceiveInterrupt.
type PL011Port struct {
	bus *rp.UART0_Type
	tx  machine.Pin
	rx  machine.Pin

	intr    interrupt.Interrupt
	handler func()
}

// Ensure the port satisfies the contract at compile time.
var _ console.Port = (*PL011Port)(nil)

// UART0 returns the console port on UART0 with the board default pins.
func UART0() *PL011Port {
	return &PL011Port{bus: rp.UART0, tx: machine.UART_TX_PIN, rx: machine.UART_RX_PIN}
}

func (p *PL011Port) Configure(cfg console.PortConfig) error {
	p.resetAndUnreset()

	f := cfg.Format
	p.setBaudRate(f.Baud)
	p.setFormat(f.DataBits, f.StopBits, f.Parity)

	// Enable UART, RX and TX. No hardware flow control.
	p.bus.UARTCR.SetBits(rp.UART0_UARTCR_UARTEN | rp.UART0_UARTCR_RXE | rp.UART0_UARTCR_TXE)

	// Pin muxing through machine.
	p.tx.Configure(machine.PinConfig{Mode: machine.PinUART})
	p.rx.Configure(machine.PinConfig{Mode: machine.PinUART})

	return nil
}

func (p *PL011Port) ReceiveReady() bool {
	return !p.bus.UARTFR.HasBits(rp.UART0_UARTFR_RXFE)
}

func (p *PL011Port) ReadData() byte {
	return byte(p.bus.UARTDR.Get() & 0xFF)
}

func (p *PL011Port) WriteData(b byte) error {
	deadline := time.Now().Add(txByteTimeout)
	for p.bus.UARTFR.HasBits(rp.UART0_UARTFR_TXFF) {
		if time.Now().After(deadline) {
			return errcode.TxTimeout
		}
	}
	p.bus.UARTDR.Set(uint32(b))
	return nil
}

func (p *PL011Port) EnableReceiveInterrupt(fn func()) error {
	p.handler = fn
	if p.intr == (interrupt.Interrupt{}) {
		irqNum := map[*rp.UART0_Type]int{
			rp.UART0: rp.IRQ_UART0_IRQ,
			rp.UART1: rp.IRQ_UART1_IRQ,
		}[p.bus]
		p.intr = interrupt.New(irqNum, p.handleInterrupt)
		p.intr.SetPriority(rxIRQPriority)
		p.intr.Enable()
	}
	p.bus.UARTIMSC.Set(rp.UART0_UARTIMSC_RXIM) // unmask RX IRQ
	return nil
}

func (p *PL011Port) DisableReceiveInterrupt() {
	p.bus.UARTIMSC.ClearBits(rp.UART0_UARTIMSC_RXIM)
}

// ------------------------------- Internals --------------------------------

func (p *PL011Port) handleInterrupt(interrupt.Interrupt) {
	if p.handler != nil {
		p.handler()
	}
}

func (p *PL011Port) resetAndUnreset() {
	var mask uint32
	switch p.bus {
	case rp.UART0:
		mask = rp.RESETS_RESET_UART0
	case rp.UART1:
		mask = rp.RESETS_RESET_UART1
	}
	rp.RESETS.RESET.SetBits(mask)
	rp.RESETS.RESET.ClearBits(mask)
	for !rp.RESETS.RESET_DONE.HasBits(mask) {
	}
}

func (p *PL011Port) setBaudRate(br uint32) {
	div := 8 * machine.CPUFrequency() / br
	ibrd := div >> 7
	var fbrd uint32
	switch {
	case ibrd == 0:
		ibrd, fbrd = 1, 0
	case ibrd >= 65535:
		ibrd, fbrd = 65535, 0
	default:
		fbrd = ((div & 0x7f) + 1) / 2
	}
	p.bus.UARTIBRD.Set(ibrd)
	p.bus.UARTFBRD.Set(fbrd)
	p.bus.UARTLCR_H.SetBits(0) // dummy write per PL011 quirk
}

func (p *PL011Port) setFormat(databits, stopbits uint8, parity types.Parity) {
	var pen, pev uint8
	if parity != types.ParityNone {
		pen = rp.UART0_UARTLCR_H_PEN
	}
	if parity == types.ParityEven {
		pev = rp.UART0_UARTLCR_H_EPS
	}
	p.bus.UARTLCR_H.SetBits(uint32(
		(databits-5)<<rp.UART0_UARTLCR_H_WLEN_Pos |
			(stopbits-1)<<rp.UART0_UARTLCR_H_STP2_Pos |
			pen | pev,
	))
}
