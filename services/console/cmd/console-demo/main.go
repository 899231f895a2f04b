// Command console-demo: run the console and shell on the host, bridged to
// stdin/stdout through the loopback port. Typed lines are injected into the
// receive path exactly as a UART interrupt would deliver them.
//
//	go run ./services/console/cmd/console-demo

//go:build !rp2040 && !rp2350

package main

import (
	"bufio"
	"context"
	"os"
	"os/signal"
	"time"

	"console-go/bus"
	"console-go/services/config"
	"console-go/services/console"
	"console-go/services/console/internal/platform"
	"console-go/services/shell"
	"console-go/services/stats"
	"console-go/types"
	"console-go/x/fmtx"
)

func main() {
	port := platform.NewLoopPort()
	con := console.New(port, console.Config{RXBuffer: 64})
	if err := con.Init(); err != nil {
		fmtx.Fprintf(os.Stderr, "console init: %s\n", err.Error())
		os.Exit(1)
	}
	defer con.Close()

	b := bus.NewBus(16)
	conn := b.NewConnection("demo")
	watcher := b.NewConnection("watcher")
	lines := watcher.Subscribe(bus.T("console", "shell", "line"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfgCtx := context.WithValue(ctx, config.CtxDeviceKey, "pico")
	config.NewConfigService().Start(cfgCtx, b.NewConnection("config"))
	_ = stats.New(con).Start(ctx, b.NewConnection("stats"))

	// The terminal echoes locally, so the shell must not echo again.
	sh := shell.New(con, conn, shell.Config{NoEcho: true})
	sh.Register("quit", "exit the demo", func(*shell.Shell, []string) error {
		os.Exit(0)
		return nil
	})

	// stdin -> receive path, one interrupt per line.
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			port.InjectRX(append(sc.Bytes(), '\r'))
		}
		stop()
	}()

	// transmit record -> stdout.
	go func() {
		var seen int
		for {
			tx := port.TxBytes()
			if len(tx) > seen {
				os.Stdout.Write(tx[seen:])
				seen = len(tx)
			}
			time.Sleep(10 * time.Millisecond)
		}
	}()

	// Log dispatched lines on stderr so the bus wiring is visible.
	go func() {
		for msg := range lines.Channel() {
			if l, ok := msg.Payload.(types.ShellLine); ok {
				fmtx.Fprintf(os.Stderr, "[line] %s\n", l.Line)
			}
		}
	}()

	_ = sh.Run(ctx)
}
