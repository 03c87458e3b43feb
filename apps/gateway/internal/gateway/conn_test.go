package gateway

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/config"
)

// fakeWS は読み取りフレームを順に返し、書き込みを記録する。
type fakeWS struct {
	mu      sync.Mutex
	reads   chan []byte
	written [][]byte
	closed  bool
}

func newFakeWS() *fakeWS {
	return &fakeWS{reads: make(chan []byte, 16)}
}

func (f *fakeWS) ReadMessage() (int, []byte, error) {
	data, ok := <-f.reads
	if !ok {
		return 0, nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
	}
	return websocket.TextMessage, data, nil
}

func (f *fakeWS) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if messageType == websocket.TextMessage {
		f.written = append(f.written, data)
	}
	return nil
}

func (f *fakeWS) SetReadLimit(int64)                {}
func (f *fakeWS) SetReadDeadline(time.Time) error   { return nil }
func (f *fakeWS) SetWriteDeadline(time.Time) error  { return nil }
func (f *fakeWS) SetPongHandler(func(string) error) {}

func (f *fakeWS) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeWS) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeWS) writtenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.written)
}

func TestClientSendQueueFull(t *testing.T) {
	ws := newFakeWS()
	c := newClient(ws, "127.0.0.1:1")

	for i := 0; i < config.WSSendQueueSize; i++ {
		if err := c.Send([]byte("x")); err != nil {
			t.Fatalf("Send %d failed: %v", i, err)
		}
	}
	if err := c.Send([]byte("overflow")); !errors.Is(err, ErrSendQueueFull) {
		t.Fatalf("Send error = %v, want ErrSendQueueFull", err)
	}
	if !ws.isClosed() {
		t.Error("connection should be closed on overflow")
	}
	if err := c.Send([]byte("after")); !errors.Is(err, ErrConnClosed) {
		t.Errorf("Send after close = %v, want ErrConnClosed", err)
	}
}

func TestClientCloseIdempotent(t *testing.T) {
	c := newClient(newFakeWS(), "")
	c.Close()
	c.Close()
	select {
	case <-c.Done():
	default:
		t.Error("Done should be closed")
	}
}

func TestClientWritePump(t *testing.T) {
	ws := newFakeWS()
	c := newClient(ws, "")
	finished := make(chan struct{})
	go func() {
		c.writePump()
		close(finished)
	}()

	_ = c.Send([]byte(`{"a":1}`))
	_ = c.Send([]byte(`{"a":2}`))

	deadline := time.Now().Add(2 * time.Second)
	for ws.writtenCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := ws.writtenCount(); got != 2 {
		t.Fatalf("written = %d, want 2", got)
	}

	c.Close()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("writePump did not stop")
	}
}

func TestClientReadPumpDropsMalformed(t *testing.T) {
	ws := newFakeWS()
	c := newClient(ws, "")
	target := &recordTarget{}

	ws.reads <- []byte(`garbage`)
	ws.reads <- []byte(`{"nothing":true}`)
	ws.reads <- []byte(`{"sub":"room"}`)
	close(ws.reads)

	c.readPump(target)

	if len(target.calls) != 1 || target.calls[0] != "sub:room:" {
		t.Errorf("calls = %v, want [sub:room:]", target.calls)
	}
}
