// services/console/console_test.go
package console

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"console-go/errcode"
)

// fakePort models the peripheral register interface: queued receive bytes,
// recorded transmit bytes, ISR-style handler dispatch on inject.
type fakePort struct {
	mu      sync.Mutex
	rx      []byte
	tx      []byte
	handler func()
	irqOn   bool

	configErr  error
	txErr      error
	configured int
	cfg        PortConfig
}

func (p *fakePort) Configure(cfg PortConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.configErr != nil {
		return p.configErr
	}
	p.configured++
	p.cfg = cfg
	return nil
}

func (p *fakePort) ReceiveReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.rx) > 0
}

func (p *fakePort) ReadData() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.rx) == 0 {
		return 0
	}
	b := p.rx[0]
	p.rx = p.rx[1:]
	return b
}

func (p *fakePort) WriteData(b byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.txErr != nil {
		return p.txErr
	}
	p.tx = append(p.tx, b)
	return nil
}

func (p *fakePort) EnableReceiveInterrupt(fn func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = fn
	p.irqOn = true
	return nil
}

func (p *fakePort) DisableReceiveInterrupt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.irqOn = false
}

// inject queues data and fires the handler once — one hardware interrupt
// servicing one burst.
func (p *fakePort) inject(data ...byte) {
	p.mu.Lock()
	p.rx = append(p.rx, data...)
	fn := p.handler
	on := p.irqOn
	p.mu.Unlock()
	if on && fn != nil {
		fn()
	}
}

func (p *fakePort) txBytes() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.tx...)
}

func newTestConsole(t *testing.T) (*Console, *fakePort) {
	t.Helper()
	port := &fakePort{}
	c := New(port, Config{})
	if err := c.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return c, port
}

func TestInitAppliesReferenceDefaults(t *testing.T) {
	c, port := newTestConsole(t)
	f := port.cfg.Format
	if f.Baud != 115200 || f.DataBits != 8 || f.StopBits != 1 {
		t.Fatalf("configured format = %+v, want 115200 8N1", f)
	}
	if c.ring.Cap() != 16 {
		t.Fatalf("ring capacity = %d, want 16", c.ring.Cap())
	}
	if !port.irqOn {
		t.Fatal("receive interrupt not enabled by Init")
	}
}

func TestInitRejectsSecondCall(t *testing.T) {
	c, _ := newTestConsole(t)
	if err := c.Init(); err == nil {
		t.Fatal("second Init succeeded")
	}
}

func TestInitPortConfigFailureIsFatal(t *testing.T) {
	port := &fakePort{configErr: errors.New("bad divisor")}
	c := New(port, Config{})
	err := c.Init()
	if err == nil {
		t.Fatal("Init succeeded with rejected port config")
	}
	if errcode.Of(err) != errcode.PortConfig {
		t.Fatalf("error code = %v, want %v", errcode.Of(err), errcode.PortConfig)
	}
	if port.irqOn {
		t.Fatal("interrupt enabled despite failed configuration")
	}
}

func TestPutStringNormalisesLineEndings(t *testing.T) {
	c, port := newTestConsole(t)
	if err := c.PutString("a\nb"); err != nil {
		t.Fatalf("PutString: %v", err)
	}
	want := []byte{'a', '\r', '\n', 'b'}
	if got := port.txBytes(); !bytes.Equal(got, want) {
		t.Fatalf("tx = %q, want %q", got, want)
	}
}

func TestPutStringPropagatesTxTimeout(t *testing.T) {
	c, port := newTestConsole(t)
	port.txErr = errcode.TxTimeout
	if err := c.PutString("x"); errcode.Of(err) != errcode.TxTimeout {
		t.Fatalf("err = %v, want tx_timeout", err)
	}
}

func TestGetCharReturnsBufferedByte(t *testing.T) {
	c, port := newTestConsole(t)
	port.inject('A')
	if b := c.GetChar(); b != 'A' {
		t.Fatalf("GetChar = %q, want 'A'", b)
	}
}

func TestGetCharBlocksUntilInterrupt(t *testing.T) {
	c, port := newTestConsole(t)

	done := make(chan byte, 1)
	go func() { done <- c.GetChar() }()

	select {
	case b := <-done:
		t.Fatalf("GetChar returned %q with empty buffer", b)
	case <-time.After(20 * time.Millisecond):
	}

	port.inject('Z')

	select {
	case b := <-done:
		if b != 'Z' {
			t.Fatalf("GetChar = %q, want 'Z'", b)
		}
	case <-time.After(300 * time.Millisecond):
		t.Fatal("timeout waiting for GetChar to wake")
	}
}

func TestInterruptBurstSignalsOnce(t *testing.T) {
	c, port := newTestConsole(t)

	port.inject('a', 'b', 'c')

	if got := c.rxSem.Count(); got != 1 {
		t.Fatalf("semaphore count after one burst = %d, want 1", got)
	}
	// All bytes of the burst are served without further interrupts.
	for _, want := range []byte("abc") {
		if b := c.GetChar(); b != want {
			t.Fatalf("GetChar = %q, want %q", b, want)
		}
	}
	if c.Buffered() != 0 {
		t.Fatalf("Buffered() = %d after drain, want 0", c.Buffered())
	}
}

func TestOverflowDropsNewestByte(t *testing.T) {
	c, port := newTestConsole(t)

	seq := make([]byte, 20)
	for i := range seq {
		seq[i] = byte(i)
	}
	port.inject(seq...) // capacity is 16; the last 4 must be dropped

	st := c.Stats()
	if st.Received != 20 {
		t.Fatalf("Received = %d, want 20", st.Received)
	}
	if st.Dropped != 4 {
		t.Fatalf("Dropped = %d, want 4", st.Dropped)
	}
	for i := 0; i < 16; i++ {
		if b := c.GetChar(); b != byte(i) {
			t.Fatalf("GetChar = %d, want %d (oldest data must survive)", b, i)
		}
	}
}

func TestGetCharContextCancellation(t *testing.T) {
	c, _ := newTestConsole(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.GetCharContext(ctx)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("GetCharContext returned nil after cancellation")
		}
	case <-time.After(300 * time.Millisecond):
		t.Fatal("timeout waiting for cancelled GetCharContext")
	}
}

func TestReadNonBlockingSemantics(t *testing.T) {
	c, port := newTestConsole(t)
	buf := make([]byte, 8)

	if n, err := c.Read(buf); err != nil || n != 0 {
		t.Fatalf("Read on empty: n=%d err=%v; want 0,nil", n, err)
	}

	port.inject('A', 'B', 'C')

	n, err := c.Read(buf)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if n != 3 || string(buf[:n]) != "ABC" {
		t.Fatalf("got n=%d data=%q; want 3, \"ABC\"", n, string(buf[:n]))
	}

	if _, err := c.ReadByte(); err == nil {
		t.Fatal("ReadByte on drained console succeeded")
	}
}

func TestCloseMasksInterrupt(t *testing.T) {
	c, port := newTestConsole(t)
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if port.irqOn {
		t.Fatal("interrupt still enabled after Close")
	}
}
