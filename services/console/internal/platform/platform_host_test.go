// services/console/internal/platform/platform_host_test.go
//go:build !rp2040 && !rp2350

package platform

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"console-go/services/console"
)

var errFault = errors.New("injected fault")

func TestLoopPortEndToEnd(t *testing.T) {
	port := NewLoopPort()
	c := console.New(port, console.Config{})
	if err := c.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if f := port.Format(); f.Baud != 115200 {
		t.Fatalf("configured baud = %d, want 115200", f.Baud)
	}

	done := make(chan byte, 1)
	go func() { done <- c.GetChar() }()

	time.Sleep(10 * time.Millisecond)
	port.InjectRX([]byte{'q'})

	select {
	case b := <-done:
		if b != 'q' {
			t.Fatalf("GetChar = %q, want 'q'", b)
		}
	case <-time.After(300 * time.Millisecond):
		t.Fatal("timeout waiting for injected byte")
	}

	if err := c.PutString("ok\n"); err != nil {
		t.Fatalf("PutString: %v", err)
	}
	if got, want := port.TxBytes(), []byte("ok\r\n"); !bytes.Equal(got, want) {
		t.Fatalf("tx = %q, want %q", got, want)
	}
}

func TestLoopPortConfigFault(t *testing.T) {
	port := NewLoopPort()
	port.ConfigErr = errFault
	c := console.New(port, console.Config{})
	if err := c.Init(); err == nil {
		t.Fatal("Init succeeded with injected config fault")
	}
}

func TestWriteBeforeConfigureRejected(t *testing.T) {
	port := NewLoopPort()
	if err := port.WriteData('x'); err == nil {
		t.Fatal("WriteData succeeded on unconfigured port")
	}
}
