// Package watchlink implements the private socket protocol between the
// engine and the companion watch: newline-terminated JSON pushes outbound
// and a single-token command listener inbound. The peer is a single
// trusted device on a local network; there is no auth or framing beyond
// the newline.
package watchlink

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
)

// DefaultPushTimeout bounds one connect+send round trip.
const DefaultPushTimeout = 2 * time.Second

// PushPayload is the one JSON object sent per push.
type PushPayload struct {
	Load       int  `json:"load"`
	Vibrate    bool `json:"vibrate"`
	Snooze     bool `json:"snooze"`
	SnoozeTime *int `json:"snoozeTime"`
}

// Pusher sends alert-state pushes to the watch. Each push opens a fresh
// connection, writes one line, and closes; nothing is pooled.
type Pusher struct {
	addr    string
	timeout time.Duration
	logger  *zap.Logger
}

// NewPusher creates a pusher targeting addr (host:port). A non-positive
// timeout falls back to DefaultPushTimeout.
func NewPusher(addr string, timeout time.Duration, logger *zap.Logger) *Pusher {
	if timeout <= 0 {
		timeout = DefaultPushTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pusher{addr: addr, timeout: timeout, logger: logger}
}

// Push sends one payload. The returned error is informational; callers
// treat a missed push as a non-event and must not let it affect alert
// state or the evaluation loop.
func (p *Pusher) Push(payload PushPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal push payload: %w", err)
	}

	conn, err := net.DialTimeout("tcp", p.addr, p.timeout)
	if err != nil {
		return fmt.Errorf("dial watch %s: %w", p.addr, err)
	}
	defer conn.Close()

	if err := conn.SetWriteDeadline(time.Now().Add(p.timeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if _, err := conn.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("send to watch %s: %w", p.addr, err)
	}

	p.logger.Debug("pushed state to watch",
		zap.String("addr", p.addr),
		zap.ByteString("payload", data))
	return nil
}
