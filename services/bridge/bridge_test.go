// bridge/bridge_test.go
package bridge

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"testing"
	"time"

	"console-go/bus"
)

func TestBridge_EstablishesUARTLinkAndReportsState(t *testing.T) {
	b := bus.NewBus(16)
	conn := b.NewConnection("bridge_test")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Start(ctx, conn)

	// Subscribe to bridge/state (retained) and verify initial status.
	stateSub := conn.Subscribe(bus.T("bridge", "state"))
	defer conn.Unsubscribe(stateSub)

	first := nextStatePayload(t, stateSub, 500*time.Millisecond)
	assertLevelStatus(t, first, "idle", "awaiting_config")

	// Inject a UART dialler that returns a net.Pipe; keep the remote end to simulate link loss.
	prevDial := UARTDial
	defer func() { UARTDial = prevDial }()
	var remote io.ReadWriteCloser
	UARTDial = func(ctx context.Context, _ UARTConfig) (io.ReadWriteCloser, error) {
		lc, rc := net.Pipe()
		remote = rc
		// Remote peer loop: respond to ping frames; ignore others.
		go remotePeer(rc, nil)
		return lc, nil
	}

	// Publish a valid UART config.
	cfg := `{"transport":{"type":"uart","uart":{"baud":115200,"rx_pin":1,"tx_pin":0}}}`
	conn.Publish(conn.NewMessage(bus.T("config", "bridge"), cfg, false))

	up := nextStatePayload(t, stateSub, time.Second)
	assertLevelStatus(t, up, "up", "link_established")

	// Close the remote to force link loss; expect degraded state.
	if remote != nil {
		_ = remote.Close()
	}

	degraded := nextStatePayload(t, stateSub, time.Second)
	assertLevelStatus(t, degraded, "degraded", "link_lost_retrying")
}

func TestBridge_UnknownTransportYieldsErrorState(t *testing.T) {
	b := bus.NewBus(8)
	conn := b.NewConnection("bridge_test_bad")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Start(ctx, conn)

	stateSub := conn.Subscribe(bus.T("bridge", "state"))
	defer conn.Unsubscribe(stateSub)

	first := nextStatePayload(t, stateSub, 500*time.Millisecond)
	assertLevelStatus(t, first, "idle", "awaiting_config")

	conn.Publish(conn.NewMessage(bus.T("config", "bridge"),
		`{"transport":{"type":"carrier-pigeon"}}`, false))

	errState := nextStatePayload(t, stateSub, time.Second)
	assertLevelStatus(t, errState, "error", "transport_init_failed")
}

func TestBridge_ExportsConfiguredTopics(t *testing.T) {
	b := bus.NewBus(16)
	conn := b.NewConnection("bridge_test_pub")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Start(ctx, conn)

	stateSub := conn.Subscribe(bus.T("bridge", "state"))
	defer conn.Unsubscribe(stateSub)
	nextStatePayload(t, stateSub, 500*time.Millisecond) // idle

	pubs := make(chan pubFrame, 4)
	prevDial := UARTDial
	defer func() { UARTDial = prevDial }()
	UARTDial = func(ctx context.Context, _ UARTConfig) (io.ReadWriteCloser, error) {
		lc, rc := net.Pipe()
		go remotePeer(rc, pubs)
		return lc, nil
	}

	cfg := `{"transport":{"type":"uart","uart":{"baud":115200}},"topics":["console/#"]}`
	conn.Publish(conn.NewMessage(bus.T("config", "bridge"), cfg, false))

	up := nextStatePayload(t, stateSub, time.Second)
	assertLevelStatus(t, up, "up", "link_established")

	// The subscriptions come up just after the state flips; republish until
	// the frame makes it across.
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	deadline := time.After(2 * time.Second)
	for {
		conn.Publish(conn.NewMessage(bus.T("console", "shell", "line"),
			map[string]any{"line": "echo hi"}, false))
		select {
		case pf := <-pubs:
			if pf.Topic != "console/shell/line" {
				t.Errorf("forwarded topic = %q, want console/shell/line", pf.Topic)
			}
			m, ok := pf.Payload.(map[string]any)
			if !ok {
				t.Fatalf("forwarded payload type %T", pf.Payload)
			}
			if m["line"] != "echo hi" {
				t.Errorf("forwarded line = %#v, want \"echo hi\"", m["line"])
			}
			return
		case <-tick.C:
		case <-deadline:
			t.Fatal("no pub frame reached the remote peer")
		}
	}
}

// ---------------- helpers ----------------

// remotePeer answers pings and, when pubs is non-nil, decodes pub frames into it.
func remotePeer(rwc io.ReadWriteCloser, pubs chan<- pubFrame) {
	rd := newFramedReader(rwc)
	wr := newFramedWriter(rwc)
	for {
		f, err := rd.ReadFrame()
		if err != nil {
			return
		}
		switch f.Type {
		case framePing:
			if wr.WriteFrame(Frame{Type: framePong}) != nil {
				return
			}
		case framePub:
			if pubs == nil {
				continue
			}
			var pf pubFrame
			if json.Unmarshal(f.Payload, &pf) == nil {
				select {
				case pubs <- pf:
				default:
				}
			}
		case frameClose:
			return
		}
	}
}

func nextStatePayload(t *testing.T, sub *bus.Subscription, timeout time.Duration) map[string]any {
	t.Helper()
	select {
	case msg := <-sub.Channel():
		m, ok := msg.Payload.(map[string]any)
		if !ok {
			t.Fatalf("state payload type %T", msg.Payload)
		}
		return m
	case <-time.After(timeout):
		t.Fatal("timed out waiting for bridge state")
		return nil
	}
}

func assertLevelStatus(t *testing.T, m map[string]any, level, status string) {
	t.Helper()
	if m["level"] != level || m["status"] != status {
		t.Fatalf("state = %v/%v, want %s/%s", m["level"], m["status"], level, status)
	}
}
