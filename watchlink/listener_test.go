package watchlink

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

// freePort reserves an ephemeral port and releases it for the listener.
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

func sendLine(t *testing.T, port int, line string) {
	t.Helper()
	var conn net.Conn
	var err error
	// The listener binds asynchronously; retry briefly.
	for i := 0; i < 50; i++ {
		conn, err = net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("dial listener: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte(line)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestListenerInvokesSnoozeCallback(t *testing.T) {
	port := freePort(t)
	snoozed := make(chan struct{}, 1)

	l := NewListener(port, func() { snoozed <- struct{}{} }, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	sendLine(t, port, "SNOOZE\n")

	select {
	case <-snoozed:
	case <-time.After(3 * time.Second):
		t.Fatal("snooze callback not invoked")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("listener did not stop on cancellation")
	}
}

func TestListenerAcceptsBareTokenWithoutNewline(t *testing.T) {
	port := freePort(t)
	snoozed := make(chan struct{}, 1)

	l := NewListener(port, func() { snoozed <- struct{}{} }, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	// EOF-terminated token, as sent by firmware that closes after write.
	sendLine(t, port, "SNOOZE")

	select {
	case <-snoozed:
	case <-time.After(3 * time.Second):
		t.Fatal("snooze callback not invoked for EOF-terminated token")
	}
}

func TestListenerIgnoresUnknownPayload(t *testing.T) {
	port := freePort(t)
	snoozed := make(chan struct{}, 1)

	l := NewListener(port, func() { snoozed <- struct{}{} }, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	sendLine(t, port, "REBOOT\n")
	sendLine(t, port, "snooze\n") // token match is exact and case-sensitive

	select {
	case <-snoozed:
		t.Fatal("snooze invoked for unknown payload")
	case <-time.After(500 * time.Millisecond):
	}

	// The listener must still work after garbage.
	sendLine(t, port, "SNOOZE\n")
	select {
	case <-snoozed:
	case <-time.After(3 * time.Second):
		t.Fatal("listener dead after unknown payload")
	}
}

func TestListenerBindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	l := NewListener(port, func() {}, zaptest.NewLogger(t))
	if err := l.Run(context.Background()); err == nil {
		t.Fatal("Run() on an occupied port succeeded, want error")
	}
}
