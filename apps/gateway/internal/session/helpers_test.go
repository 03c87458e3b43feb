package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/aggregator"
	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/auth"
	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/store"
)

// manualExec はPostを即時実行し、Goで渡された処理をrunOffLoopまで保留する。
type manualExec struct {
	offLoop []func()
	stopped bool
	done    chan struct{}
}

func newManualExec() *manualExec {
	return &manualExec{done: make(chan struct{})}
}

func (e *manualExec) Post(f func()) bool {
	if e.stopped {
		return false
	}
	f()
	return true
}

func (e *manualExec) Go(f func()) { e.offLoop = append(e.offLoop, f) }

func (e *manualExec) Stop() {
	if !e.stopped {
		e.stopped = true
		close(e.done)
	}
}

func (e *manualExec) Done() <-chan struct{} { return e.done }

func (e *manualExec) runOffLoop() {
	for len(e.offLoop) > 0 {
		f := e.offLoop[0]
		e.offLoop = e.offLoop[1:]
		f()
	}
}

// fakeConn は送信フレームを記録する。
type fakeConn struct {
	mu     sync.Mutex
	sent   [][]byte
	closed bool
}

func (c *fakeConn) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, frame)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) frames() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.sent))
	for _, b := range c.sent {
		var m map[string]any
		_ = json.Unmarshal(b, &m)
		out = append(out, m)
	}
	return out
}

// deliveries はchan/msgフレームのみを返す。
func (c *fakeConn) deliveries() []map[string]any {
	var out []map[string]any
	for _, f := range c.frames() {
		if _, ok := f["chan"]; ok {
			out = append(out, f)
		}
	}
	return out
}

func (c *fakeConn) count(key string) int {
	n := 0
	for _, f := range c.frames() {
		if _, ok := f[key]; ok {
			n++
		}
	}
	return n
}

// memBridge はメモリ上でファンアウトするBridge。
type memBridge struct {
	mu        sync.Mutex
	routes    map[string]map[store.Subscriber]struct{}
	published []string
	subCalls  int
}

func newMemBridge() *memBridge {
	return &memBridge{routes: make(map[string]map[store.Subscriber]struct{})}
}

func (b *memBridge) Subscribe(_ context.Context, channel string, sub store.Subscriber) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subCalls++
	if b.routes[channel] == nil {
		b.routes[channel] = make(map[store.Subscriber]struct{})
	}
	b.routes[channel][sub] = struct{}{}
	return nil
}

func (b *memBridge) Unsubscribe(_ context.Context, channel string, sub store.Subscriber) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.routes[channel], sub)
	return nil
}

func (b *memBridge) RemoveAll(_ context.Context, sub store.Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, subs := range b.routes {
		delete(subs, sub)
	}
}

func (b *memBridge) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	b.published = append(b.published, string(payload))
	b.mu.Unlock()
	b.inject(channel, string(payload))
	return nil
}

// inject はストアへ直接投入されたメッセージを模擬する。
func (b *memBridge) inject(channel, payload string) {
	b.mu.Lock()
	subs := make([]store.Subscriber, 0)
	for s := range b.routes[channel] {
		subs = append(subs, s)
	}
	b.mu.Unlock()
	for _, s := range subs {
		s.Deliver(channel, payload)
	}
}

func (b *memBridge) subscribers(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.routes[channel])
}

// stubMech は判定関数を差し替え可能な認可方式。
type stubMech struct {
	traits auth.Traits
	decide func(auth.Request) (auth.Decision, error)

	mu    sync.Mutex
	calls []auth.Request
}

func (m *stubMech) Kind() auth.Kind { return "stub" }

func (m *stubMech) Traits() auth.Traits { return m.traits }

func (m *stubMech) Authorize(_ context.Context, req auth.Request) (auth.Decision, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()
	return m.decide(req)
}

func (m *stubMech) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// grantOnly は指定チャネルのみ許可する判定関数を返す。
func grantOnly(allowed ...string) func(auth.Request) (auth.Decision, error) {
	return func(req auth.Request) (auth.Decision, error) {
		d := make(auth.Decision)
		for _, k := range req.Keys() {
			for _, a := range allowed {
				if k == a {
					d[k] = auth.FullGrant
				}
			}
		}
		return d, nil
	}
}

// fakeClock はテスト用の手動進行クロック。
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	at     time.Time
	f      func()
	active bool
}

func (t *fakeTimer) Stop() bool {
	was := t.active
	t.active = false
	return was
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) aggregator.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now.Add(d), f: f, active: true}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if t.active && !t.at.After(c.now) {
			t.active = false
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

func (c *fakeClock) activeTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if t.active {
			n++
		}
	}
	return n
}
