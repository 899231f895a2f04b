// Command pico-loopback: hardware self-test for the console receive path.
// UART1 acts as the far end of the wire: everything it receives is echoed
// straight back, so a string written through the console comes home through
// the receive interrupt, ring and semaphore.
//
// Wiring: UART0 TX -> UART1 RX, UART1 TX -> UART0 RX.
//
// Build/flash (TinyGo):
//
//	tinygo flash -target pico ./services/console/cmd/pico-loopback

//go:build rp2040 || rp2350

package main

import (
	"context"
	"machine"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"console-go/services/console"
	"console-go/services/console/internal/platform"
)

const probe = "hello-console\n"

func main() {
	time.Sleep(2 * time.Second)
	println("[loopback] boot …")

	con := console.New(platform.UART0(), console.Config{RXBuffer: 64})
	if err := con.Init(); err != nil {
		println("[loopback] init failed:", err.Error())
		return
	}

	// Far end on UART1, echoing everything back.
	far := uartx.UART1
	if err := far.Configure(uartx.UARTConfig{
		BaudRate: 115200,
		TX:       machine.UART1_TX_PIN,
		RX:       machine.UART1_RX_PIN,
	}); err != nil {
		println("[loopback] uart1 configure failed:", err.Error())
		return
	}
	go echoFarEnd(far)

	if err := con.PutString(probe); err != nil {
		println("[loopback] send failed:", err.Error())
		return
	}

	// LF went out as CRLF, so CRLF is what comes home.
	want := "hello-console\r\n"
	got := make([]byte, 0, len(want))
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	for len(got) < len(want) {
		b, err := con.GetCharContext(ctx)
		if err != nil {
			println("[loopback] FAIL: timed out after", len(got), "bytes")
			return
		}
		got = append(got, b)
	}

	if string(got) != want {
		println("[loopback] FAIL: payload mismatch")
		return
	}
	st := con.Stats()
	println("[loopback] PASS: received", st.Received, "dropped", st.Dropped)
}

func echoFarEnd(u *uartx.UART) {
	buf := make([]byte, 32)
	for {
		if n := u.TryRead(buf); n > 0 {
			_, _ = u.Write(buf[:n])
			continue
		}
		<-u.Readable()
	}
}
