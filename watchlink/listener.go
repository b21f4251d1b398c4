package watchlink

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SnoozeToken is the only command the watch can send. Anything else on
// the wire is ignored.
const SnoozeToken = "SNOOZE"

// acceptPoll bounds each Accept call so the loop observes cancellation
// within one interval.
const acceptPoll = time.Second

// Listener accepts watch connections on a fixed port and invokes the
// snooze callback when the snooze token arrives. Connections are handled
// one at a time; per-connection errors are logged and do not stop the
// listener.
type Listener struct {
	port        int
	onSnooze    func()
	logger      *zap.Logger
	readTimeout time.Duration
}

// NewListener creates a listener for the given port. onSnooze is invoked
// once per received snooze command, on the listener goroutine.
func NewListener(port int, onSnooze func(), logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{
		port:        port,
		onSnooze:    onSnooze,
		logger:      logger,
		readTimeout: 5 * time.Second,
	}
}

// Run binds the port and serves until ctx is cancelled. The bound port is
// released before Run returns. A bind failure is returned immediately;
// everything after a successful bind is contained.
func (l *Listener) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", l.port))
	if err != nil {
		return fmt.Errorf("bind snooze listener port %d: %w", l.port, err)
	}
	defer ln.Close()

	tcpLn, ok := ln.(*net.TCPListener)
	if !ok {
		return fmt.Errorf("unexpected listener type %T", ln)
	}

	l.logger.Info("listening for watch commands", zap.Int("port", l.port))

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := tcpLn.SetDeadline(time.Now().Add(acceptPoll)); err != nil {
			l.logger.Warn("set accept deadline failed", zap.Error(err))
		}

		conn, err := tcpLn.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			l.logger.Warn("accept failed", zap.Error(err))
			continue
		}

		l.handleConn(conn)
	}
}

// handleConn reads one line from the watch and reacts to the snooze
// token. The connection is closed before returning.
func (l *Listener) handleConn(conn net.Conn) {
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(l.readTimeout)); err != nil {
		l.logger.Warn("set read deadline failed", zap.Error(err))
		return
	}

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && line == "" {
		l.logger.Warn("read from watch failed", zap.Error(err))
		return
	}

	msg := strings.TrimSpace(line)
	if msg != SnoozeToken {
		l.logger.Debug("ignoring unknown watch payload", zap.String("payload", msg))
		return
	}

	l.logger.Info("watch triggered snooze")
	if l.onSnooze != nil {
		l.onSnooze()
	}
}
