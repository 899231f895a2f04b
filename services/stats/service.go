// Package stats periodically publishes the console's receive-path counters as
// a retained bus message, so late subscribers always see the latest snapshot.
package stats

import (
	"context"
	"time"

	"console-go/bus"
	"console-go/services/console"
)

var (
	topicConfigStats = bus.T("config", "stats")
	topicStats       = bus.T("console", "stats")
)

type Service struct {
	con *console.Console
}

func New(con *console.Console) *Service { return &Service{con: con} }

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigStats)
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(1 * time.Second)
	defer tick.Stop()

	// loop until context is cancelled, respond to tick and config changes
	for {
		select {
		case <-ctx.Done():
			println("Info: stats service stopping")
			return
		case <-tick.C:
			conn.Publish(conn.NewMessage(topicStats, s.con.Stats(), true))
		case msg := <-cfgSub.Channel():
			// Change tick interval if needed
			if m, ok := msg.Payload.(map[string]any); ok {
				if iv, ok := m["interval"]; ok {
					if interval, ok := iv.(float64); ok && interval > 0 {
						tick.Reset(time.Duration(interval * float64(time.Second)))
					}
				}
			}
		}
	}
}

// Start the stats publisher.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
