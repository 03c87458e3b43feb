package session

import "sync"

// executor はセッションのイベントループを抽象化する。
type executor interface {
	// Post はループ上で実行する処理を積む。停止後はfalseを返す
	Post(f func()) bool
	// Go はループ外で実行する処理を開始する
	Go(f func())
	// Stop はループを停止する。以後のPostは拒否される
	Stop()
	// Done は停止後にcloseされる
	Done() <-chan struct{}
}

// loop は1セッション専用のイベントループ。
// キューは上限を持たず、Postは呼び出し元をブロックしない。
type loop struct {
	mu      sync.Mutex
	queue   []func()
	stopped bool
	wake    chan struct{}
	done    chan struct{}
}

func newLoop() *loop {
	l := &loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *loop) Post(f func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, f)
	l.mu.Unlock()
	l.signal()
	return true
}

func (l *loop) Go(f func()) { go f() }

func (l *loop) Stop() {
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()
	l.signal()
}

func (l *loop) Done() <-chan struct{} { return l.done }

func (l *loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *loop) run() {
	defer close(l.done)
	for range l.wake {
		for {
			l.mu.Lock()
			if l.stopped {
				l.queue = nil
				l.mu.Unlock()
				return
			}
			if len(l.queue) == 0 {
				l.mu.Unlock()
				break
			}
			f := l.queue[0]
			l.queue[0] = nil
			l.queue = l.queue[1:]
			l.mu.Unlock()
			f()
		}
	}
}
