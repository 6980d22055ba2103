package heartbeat

import (
	"context"
	"time"

	"lasertag-go/bus"
	"lasertag-go/x/timex"
)

var (
	topicConfig = bus.T("config", "heartbeat")
	topicBeat   = bus.T("system", "heartbeat")
)

// Beat is the retained liveness payload.
type Beat struct {
	Seq uint32 `json:"seq"`
	TS  int64  `json:"ts_ms"`
}

type Service struct{}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfig)
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(1 * time.Second)
	defer tick.Stop()

	var seq uint32

	// loop until context is cancelled, respond to tick and config changes
	for {
		select {
		case <-ctx.Done():
			println("Info: heartbeat service stopping")
			return
		case <-tick.C:
			seq++
			conn.Publish(conn.NewMessage(topicBeat, Beat{Seq: seq, TS: timex.NowMs()}, true))
		case msg := <-cfgSub.Channel():
			// Change tick interval if needed
			if m, ok := msg.Payload.(map[string]any); ok {
				if iv, ok := m["interval"]; ok {
					if interval, ok := asSeconds(iv); ok {
						tick.Reset(interval)
						println("Info: heartbeat interval updated")
					}
				}
			}
		}
	}
}

func asSeconds(v any) (time.Duration, bool) {
	switch x := v.(type) {
	case int:
		return time.Duration(x) * time.Second, x > 0
	case int64:
		return time.Duration(x) * time.Second, x > 0
	case float64:
		return time.Duration(x * float64(time.Second)), x > 0
	default:
		return 0, false
	}
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
