// Command pico-console: interactive serial console on UART0 of an RP2040/RP2350
// board, with the onboard LED as a liveness heartbeat.
//
// Build/flash (TinyGo):
//
//	tinygo flash -target pico ./services/console/cmd/pico-console

//go:build rp2040 || rp2350

package main

import (
	"context"
	"machine"
	"time"

	"console-go/bus"
	"console-go/services/config"
	"console-go/services/console"
	"console-go/services/console/internal/platform"
	"console-go/services/shell"
	"console-go/services/stats"
	"console-go/x/fmtx"
)

func main() {
	time.Sleep(2 * time.Second)
	println("[console] boot …")

	con := console.New(platform.UART0(), console.Config{RXBuffer: 64})
	if err := con.Init(); err != nil {
		println("[console] init failed:", err.Error())
		return
	}

	fmtx.DefaultOutput = con

	b := bus.NewBus(8)
	conn := b.NewConnection("console")

	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, "pico")
	config.NewConfigService().Start(ctx, b.NewConnection("config"))
	_ = stats.New(con).Start(ctx, b.NewConnection("stats"))

	sh := shell.New(con, conn, shell.Config{})

	// Expose the hardware I2C bus to the `i2c` monitor command.
	if err := machine.I2C0.Configure(machine.I2CConfig{Frequency: 400_000}); err == nil {
		sh.RegisterI2C("i2c0", machine.I2C0)
	} else {
		println("[console] i2c0 unavailable:", err.Error())
	}

	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	go heartbeat(led)

	_ = sh.Run(ctx)
}

// heartbeat blinks the LED so a hung shell is visible from across the room.
func heartbeat(led machine.Pin) {
	for {
		led.High()
		time.Sleep(100 * time.Millisecond)
		led.Low()
		time.Sleep(900 * time.Millisecond)
	}
}
