package aggregator

import (
	"sync"
	"time"
)

// Timer は停止可能なタイマー。
type Timer interface {
	Stop() bool
}

// Clock は時刻取得とタイマー生成を抽象化する。
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RealClock は実時間のClockを返す。
func RealClock() Clock { return realClock{} }

// FlushFunc は集約結果の配信先。
type FlushFunc func(payload any)

// Option はAggregatorのオプション。
type Option func(*Aggregator)

// WithClock はClockを差し替える。
func WithClock(c Clock) Option {
	return func(a *Aggregator) { a.clock = c }
}

// WithDispatch はタイマー発火時の実行先を指定する。
// セッションのイベントループへ投入するために使う。
func WithDispatch(d func(func())) Option {
	return func(a *Aggregator) { a.dispatch = d }
}

// Aggregator は1購読分の集約状態を保持する。
// 保留中のタイマーは常に高々1つ。
type Aggregator struct {
	mu       sync.Mutex
	recipe   Recipe
	window   time.Duration
	flush    FlushFunc
	clock    Clock
	dispatch func(func())

	working   any
	state     map[string]any
	lastFlush time.Time
	hasFlush  bool
	timer     Timer
	seq       uint64
	stopped   bool
}

// New はAggregatorを生成する。
func New(recipe Recipe, window time.Duration, flush FlushFunc, opts ...Option) *Aggregator {
	a := &Aggregator{
		recipe: recipe,
		window: window,
		flush:  flush,
		clock:  realClock{},
		dispatch: func(f func()) {
			f()
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.reset()
	return a
}

// Recipe は集約方式を返す。
func (a *Aggregator) Recipe() Recipe { return a.recipe }

// Add はペイロードを受け取り、集約規則に従って配信またはタイマー待機する。
func (a *Aggregator) Add(payload any) {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}

	if !a.accepts(payload) {
		a.mu.Unlock()
		a.flush(payload)
		return
	}
	a.accumulate(payload)

	now := a.clock.Now()
	// 保留中のタイマーがある間は再設定のみ行う（デバウンス）
	deferring := a.timer != nil
	a.cancelTimer()

	if !deferring && (!a.hasFlush || now.Sub(a.lastFlush) > a.window) {
		a.lastFlush = now
		a.hasFlush = true
		out := a.pop()
		a.mu.Unlock()
		a.flush(out)
		return
	}

	a.seq++
	seq := a.seq
	a.timer = a.clock.AfterFunc(a.window, func() {
		a.dispatch(func() { a.fire(seq) })
	})
	a.mu.Unlock()
}

// Pending は保留中のタイマーがあるかを返す。
func (a *Aggregator) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timer != nil
}

// Stop は保留中のタイマーを取り消し、以後の入力を無視する。
func (a *Aggregator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	a.cancelTimer()
}

func (a *Aggregator) fire(seq uint64) {
	a.mu.Lock()
	if a.stopped || seq != a.seq || a.timer == nil {
		a.mu.Unlock()
		return
	}
	a.timer = nil
	a.lastFlush = a.clock.Now()
	a.hasFlush = true
	out := a.pop()
	a.mu.Unlock()
	a.flush(out)
}

func (a *Aggregator) cancelTimer() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.seq++
}

// accepts はこのRecipeで集約対象となるペイロードかを判定する。
func (a *Aggregator) accepts(payload any) bool {
	switch a.recipe {
	case PassThrough:
		return false
	case Throttle:
		return true
	default:
		_, ok := payload.(map[string]any)
		return ok
	}
}

func (a *Aggregator) accumulate(payload any) {
	switch a.recipe {
	case Additive:
		addInto(a.working.(map[string]any), payload.(map[string]any))
	case Diff:
		delta := diffAgainst(a.state, payload.(map[string]any))
		mergeInto(a.state, delta)
		mergeInto(a.working.(map[string]any), delta)
	case Throttle:
		a.working = payload
	}
}

// pop は集約中の内容を取り出し、作業領域を空にする。
func (a *Aggregator) pop() any {
	out := a.working
	a.reset()
	if out == nil {
		return map[string]any{}
	}
	return out
}

func (a *Aggregator) reset() {
	switch a.recipe {
	case Additive, Diff:
		a.working = make(map[string]any)
		if a.state == nil {
			a.state = make(map[string]any)
		}
	default:
		a.working = nil
	}
}
