package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/config"
	"github.com/redis/go-redis/v9"
)

// Subscriber はブリッジからの配信先。
// どちらのメソッドもブリッジの受信ゴルーチンから呼ばれるため、ブロックしてはならない。
type Subscriber interface {
	Deliver(channel, payload string)
	// Fail は共有購読接続が失われたことを通知する。以後この購読者への配信はない。
	Fail(err error)
}

// Bridge は全セッションで共有する1本の購読接続を多重化する。
// チャネルごとに関心のある購読者を保持し、参照数が0から1になるときSUBSCRIBE、
// 1から0になるときUNSUBSCRIBEを発行する。発行は共有プール経由で行う。
type Bridge struct {
	vc *ValkeyClient
	ns Namespace

	mu     sync.Mutex
	pubsub *redis.PubSub
	routes map[string]map[Subscriber]struct{} // キーは名前空間付きチャネル名
	closed bool
}

// NewBridge は新しいBridgeを生成する。
func NewBridge(vc *ValkeyClient, ns Namespace) *Bridge {
	return &Bridge{
		vc:     vc,
		ns:     ns,
		pubsub: vc.Client().Subscribe(context.Background()),
		routes: make(map[string]map[Subscriber]struct{}),
	}
}

// Subscribe はチャネルへの関心を登録する。
func (b *Bridge) Subscribe(ctx context.Context, channel string, sub Subscriber) error {
	key := b.ns.Apply(channel)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBridgeClosed
	}

	subs, ok := b.routes[key]
	if !ok {
		if err := b.pubsub.Subscribe(ctx, key); err != nil {
			return wrapErr("SUBSCRIBE", key, err)
		}
		subs = make(map[Subscriber]struct{})
		b.routes[key] = subs
	}
	subs[sub] = struct{}{}
	return nil
}

// Unsubscribe はチャネルへの関心を解除する。
func (b *Bridge) Unsubscribe(ctx context.Context, channel string, sub Subscriber) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	return b.removeLocked(ctx, b.ns.Apply(channel), sub)
}

// RemoveAll は購読者の全ての関心を解除する。
func (b *Bridge) RemoveAll(ctx context.Context, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for key, subs := range b.routes {
		if _, ok := subs[sub]; !ok {
			continue
		}
		if err := b.removeLocked(ctx, key, sub); err != nil {
			slog.Warn("購読解除失敗",
				"event_id", "STORE_UNSUB_ERR",
				"channel", key,
				"error", err,
			)
		}
	}
}

func (b *Bridge) removeLocked(ctx context.Context, key string, sub Subscriber) error {
	subs, ok := b.routes[key]
	if !ok {
		return nil
	}
	delete(subs, sub)
	if len(subs) > 0 {
		return nil
	}
	delete(b.routes, key)
	if err := b.pubsub.Unsubscribe(ctx, key); err != nil {
		return wrapErr("UNSUBSCRIBE", key, err)
	}
	return nil
}

// Publish は名前空間付きチャネルへ発行する。
func (b *Bridge) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.vc.Client().Publish(ctx, b.ns.Apply(channel), payload).Err(); err != nil {
		return wrapErr("PUBLISH", b.ns.Apply(channel), err)
	}
	return nil
}

// Subscribers はチャネルの購読者数を返す。
func (b *Bridge) Subscribers(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.routes[b.ns.Apply(channel)])
}

// Run は受信ループを実行する。ctxのキャンセルまたはClose呼び出しで終了する。
// 同一チャネルのメッセージは受信順に配信される。
// 購読接続が失われた場合は全購読者へFailを通知して経路を破棄し、
// 新しい購読接続で受信を再開する。失われた購読の復元は行わない。
func (b *Bridge) Run(ctx context.Context) error {
	bo := &backoff.ExponentialBackOff{
		InitialInterval:     config.BridgeRetryInitial,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         config.BridgeRetryMax,
	}
	bo.Reset()

	for {
		b.mu.Lock()
		ps, closed := b.pubsub, b.closed
		b.mu.Unlock()
		if closed || ctx.Err() != nil {
			return nil
		}

		msg, err := ps.Receive(ctx)
		if err != nil {
			if b.isClosed() || ctx.Err() != nil {
				return nil
			}
			b.fail(ps, err)

			t := time.NewTimer(bo.NextBackOff())
			select {
			case <-ctx.Done():
				t.Stop()
				return nil
			case <-t.C:
			}
			continue
		}
		bo.Reset()

		if m, ok := msg.(*redis.Message); ok {
			b.route(m)
		}
	}
}

func (b *Bridge) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// fail は失われた購読接続psを新しい接続に差し替え、経路上の全購読者へ障害を通知する。
func (b *Bridge) fail(ps *redis.PubSub, cause error) {
	b.mu.Lock()
	if b.closed || b.pubsub != ps {
		b.mu.Unlock()
		return
	}
	affected := make(map[Subscriber]struct{})
	for _, subs := range b.routes {
		for s := range subs {
			affected[s] = struct{}{}
		}
	}
	b.routes = make(map[string]map[Subscriber]struct{})
	b.pubsub = b.vc.Client().Subscribe(context.Background())
	b.mu.Unlock()

	_ = ps.Close()

	err := wrapErr("RECEIVE", "", cause)
	slog.Error("共有購読接続の切断",
		"event_id", "STORE_BRIDGE_LOST",
		"subscribers", len(affected),
		"error", err,
	)
	for s := range affected {
		s.Fail(err)
	}
}

func (b *Bridge) route(msg *redis.Message) {
	channel, ok := b.ns.Strip(msg.Channel)
	if !ok {
		slog.Debug("名前空間外のメッセージを破棄",
			"event_id", "STORE_FOREIGN_MSG",
			"channel", msg.Channel,
		)
		return
	}

	b.mu.Lock()
	subs := make([]Subscriber, 0, len(b.routes[msg.Channel]))
	for s := range b.routes[msg.Channel] {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		s.Deliver(channel, msg.Payload)
	}
}

// Close は購読接続を閉じる。
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.routes = make(map[string]map[Subscriber]struct{})
	return b.pubsub.Close()
}
