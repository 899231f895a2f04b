// services/console/internal/platform/platform_host.go
//go:build !rp2040 && !rp2350

package platform

import (
	"sync"

	"console-go/errcode"
	"console-go/services/console"
	"console-go/types"
)

// LoopPort is the host-side console.Port: injected receive bytes surface
// through the receive-ready/data-register interface and dispatch the
// registered handler ISR-style in the injecting goroutine. Transmitted
// bytes are recorded for inspection.
type LoopPort struct {
	mu      sync.Mutex
	rx      []byte // pending receiver data, front is the data register
	tx      []byte
	handler func()
	irqOn   bool

	configured bool
	format     types.SerialFormat

	// Injected faults for tests.
	ConfigErr error
	TxErr     error
}

func NewLoopPort() *LoopPort { return &LoopPort{} }

// Ensure the port satisfies the contract at compile time.
var _ console.Port = (*LoopPort)(nil)

func (p *LoopPort) Configure(cfg console.PortConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ConfigErr != nil {
		return p.ConfigErr
	}
	p.configured = true
	p.format = cfg.Format
	return nil
}

func (p *LoopPort) ReceiveReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.rx) > 0
}

func (p *LoopPort) ReadData() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.rx) == 0 {
		return 0
	}
	b := p.rx[0]
	p.rx = p.rx[1:]
	return b
}

func (p *LoopPort) WriteData(b byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.TxErr != nil {
		return p.TxErr
	}
	if !p.configured {
		return errcode.NotReady
	}
	p.tx = append(p.tx, b)
	return nil
}

func (p *LoopPort) EnableReceiveInterrupt(fn func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = fn
	p.irqOn = true
	return nil
}

func (p *LoopPort) DisableReceiveInterrupt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.irqOn = false
}

// InjectRX queues data and, if the receive interrupt is enabled, invokes the
// handler in the calling goroutine — one invocation per call, like one
// hardware interrupt per burst.
func (p *LoopPort) InjectRX(data []byte) {
	p.mu.Lock()
	p.rx = append(p.rx, data...)
	fn := p.handler
	on := p.irqOn
	p.mu.Unlock()
	if on && fn != nil {
		fn()
	}
}

// TxBytes returns a copy of everything transmitted so far.
func (p *LoopPort) TxBytes() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.tx...)
}

// Format returns the framing the port was configured with.
func (p *LoopPort) Format() types.SerialFormat {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.format
}
