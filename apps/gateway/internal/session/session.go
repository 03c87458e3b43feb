// Package session はクライアント接続ごとのセッション状態機械を提供する。
//
// セッションの状態はすべて専用のイベントループ上でのみ変更される。
// コマンド、ストアからの配信、集約タイマーの発火、非同期認可の結果は
// いずれもループへ投入され、1つずつ順に処理される。
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/aggregator"
	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/auth"
	"github.com/oyaguma3/iris-gateway/pkg/logging"
	"github.com/oyaguma3/iris-gateway/pkg/model"
)

var authOK = model.AuthOKFrame{Auth: true}

// Subscription は1チャネル分の購読。集約方式は生成時に固定される。
type Subscription struct {
	Channel string
	agg     *aggregator.Aggregator
}

// Recipe は購読の集約方式を返す。
func (s *Subscription) Recipe() aggregator.Recipe { return s.agg.Recipe() }

// Option はSessionのオプション。
type Option func(*Session)

// WithWindow は集約ウィンドウを設定する。
func WithWindow(d time.Duration) Option {
	return func(s *Session) { s.window = d }
}

// WithClock は集約に使うClockを設定する。
func WithClock(c aggregator.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithLogFields はトークンマスキング設定を持つログフィールド生成器を設定する。
func WithLogFields(f *logging.CommonFields) Option {
	return func(s *Session) { s.fields = f }
}

func withExecutor(e executor) Option {
	return func(s *Session) { s.exec = e }
}

// Session は1クライアント接続に対応する。
type Session struct {
	id     string
	conn   Conn
	bridge Bridge
	mech   auth.Mechanism
	traits auth.Traits
	window time.Duration
	clock  aggregator.Clock
	fields *logging.CommonFields
	exec   executor

	ctx    context.Context
	cancel context.CancelFunc

	// 以下はループ上でのみ参照する
	subs        map[string]*Subscription
	global      GlobalState
	channels    map[string]*channelAuth
	pending     map[string]*pendingQueue
	userID      string
	userToken   string
	hasIdentity bool
	epoch       uint64
	closed      bool
}

// New は新しいSessionを生成する。
func New(conn Conn, bridge Bridge, mech auth.Mechanism, opts ...Option) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:       uuid.NewString(),
		conn:     conn,
		bridge:   bridge,
		mech:     mech,
		traits:   mech.Traits(),
		window:   1500 * time.Millisecond,
		clock:    aggregator.RealClock(),
		ctx:      ctx,
		cancel:   cancel,
		subs:     make(map[string]*Subscription),
		channels: make(map[string]*channelAuth),
		pending:  make(map[string]*pendingQueue),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fields == nil {
		s.fields = logging.NewCommonFields(nil)
	}
	if s.exec == nil {
		s.exec = newLoop()
	}
	return s
}

// ID はセッションIDを返す。
func (s *Session) ID() string { return s.id }

// Start は接続直後の処理を行う。shared-secret方式ではセッションIDを通知する。
func (s *Session) Start() {
	s.exec.Post(func() {
		slog.Info("セッション開始",
			"event_id", "SESSION_OPEN",
			"session_id", s.id,
			"mechanism", string(s.mech.Kind()),
		)
		if s.traits.AnnouncesID {
			s.send(model.IDFrame{ID: s.id})
		}
	})
}

// Authenticate はユーザー情報を設定し、認証状態をリセットして再判定する。
func (s *Session) Authenticate(userID, token string) {
	s.exec.Post(func() { s.authenticate(userID, token) })
}

// Subscribe はチャネル群を購読する。
func (s *Session) Subscribe(channels []string, recipe string, tokens Tokens) {
	s.exec.Post(func() { s.subscribe(channels, recipe, tokens) })
}

// Unsubscribe はチャネル群の購読を解除する。
func (s *Session) Unsubscribe(channels []string, tokens Tokens) {
	s.exec.Post(func() { s.unsubscribe(channels, tokens) })
}

// Publish はチャネルへペイロードを発行する。
func (s *Session) Publish(channel string, payload json.RawMessage, tokens Tokens) {
	s.exec.Post(func() { s.publish(channel, payload, tokens) })
}

// Deliver はストアからの配信を受け取る。store.Subscriberを実装する。
func (s *Session) Deliver(channel, payload string) {
	s.exec.Post(func() { s.deliver(channel, payload) })
}

// Fail はストアの共有購読接続の喪失を受け取る。store.Subscriberを実装する。
func (s *Session) Fail(err error) {
	s.exec.Post(func() {
		if s.closed {
			return
		}
		s.fail("STORE_ERR", err)
	})
}

// Close はセッションを破棄する。
// 集約タイマーの取り消しとストア購読の解除を完了してから戻る。
func (s *Session) Close() {
	done := make(chan struct{})
	if !s.exec.Post(func() {
		s.teardown()
		close(done)
	}) {
		return
	}
	select {
	case <-done:
	case <-s.exec.Done():
	}
}

func (s *Session) authenticate(userID, token string) {
	if s.closed {
		return
	}
	slog.Debug("authenticate受信",
		s.fields.AuthLogFields(s.id, "AUTH_REQUEST", userID, token)...,
	)

	s.userID = userID
	s.userToken = token
	s.hasIdentity = true
	s.resetAuth()

	if s.traits.Handshake {
		s.authorizeGlobal(auth.ActionSub, func() {}, func() {})
	}
}

// resetAuth はグローバル状態とチャネル状態を破棄する。
// 判定待ちの継続処理は破棄され、進行中の判定結果は無視される。
func (s *Session) resetAuth() {
	s.epoch++
	s.global = Unauthenticated
	s.channels = make(map[string]*channelAuth)
	s.pending = make(map[string]*pendingQueue)
}

func (s *Session) subscribe(channels []string, recipe string, tokens Tokens) {
	var targets []string
	seen := make(map[string]bool, len(channels))
	for _, ch := range channels {
		if ch == "" || seen[ch] {
			continue
		}
		seen[ch] = true
		if _, ok := s.subs[ch]; ok {
			continue
		}
		targets = append(targets, ch)
	}
	if len(targets) == 0 {
		return
	}

	r := aggregator.ParseRecipe(recipe)
	s.authorize(targets, auth.ActionSub, tokens, func(ch string) {
		s.addSubscription(ch, r)
	})
}

func (s *Session) addSubscription(channel string, recipe aggregator.Recipe) {
	if s.closed {
		return
	}
	if _, ok := s.subs[channel]; ok {
		return
	}

	agg := aggregator.New(recipe, s.window, func(payload any) {
		s.flush(channel, payload)
	}, aggregator.WithClock(s.clock), aggregator.WithDispatch(func(f func()) {
		s.exec.Post(f)
	}))
	s.subs[channel] = &Subscription{Channel: channel, agg: agg}

	if err := s.bridge.Subscribe(s.ctx, channel, s); err != nil {
		s.fail("STORE_ERR", err)
		return
	}
	slog.Debug("購読開始",
		logging.WithEventID("SUBSCRIBE"),
		logging.WithSessionID(s.id),
		logging.WithChannel(channel),
		logging.WithRecipe(recipe.String()),
	)
}

func (s *Session) unsubscribe(channels []string, tokens Tokens) {
	var targets []string
	for _, ch := range channels {
		if _, ok := s.subs[ch]; ok {
			targets = append(targets, ch)
		}
	}
	if len(targets) == 0 {
		return
	}

	s.authorize(targets, auth.ActionSub, tokens, func(ch string) {
		sub, ok := s.subs[ch]
		if !ok || s.closed {
			return
		}
		sub.agg.Stop()
		delete(s.subs, ch)
		if err := s.bridge.Unsubscribe(s.ctx, ch, s); err != nil {
			s.fail("STORE_ERR", err)
			return
		}
		slog.Debug("購読解除",
			"event_id", "UNSUBSCRIBE",
			"session_id", s.id,
			"channel", ch,
		)
	})
}

func (s *Session) publish(channel string, payload json.RawMessage, tokens Tokens) {
	if channel == "" {
		return
	}
	s.authorize([]string{channel}, auth.ActionPub, tokens, func(ch string) {
		if s.closed {
			return
		}
		body, err := json.Marshal(model.NewEnvelope(payload, s.id))
		if err != nil {
			slog.Debug("ペイロードのエンコード失敗",
				"event_id", "PUBLISH_DROP",
				"session_id", s.id,
				"error", err,
			)
			return
		}
		if err := s.bridge.Publish(s.ctx, ch, body); err != nil {
			s.fail("STORE_ERR", err)
		}
	})
}

func (s *Session) deliver(channel, raw string) {
	if s.closed {
		return
	}
	sub, ok := s.subs[channel]
	if !ok {
		return
	}

	payload, ok := s.unwrap(raw)
	if !ok || isEmpty(payload) {
		return
	}
	sub.agg.Add(payload)
}

// unwrap はストアのメッセージから配信するペイロードを取り出す。
// 自セッションが発行したメッセージはfalseを返す。
func (s *Session) unwrap(raw string) (any, bool) {
	var msg any
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return nil, false
	}
	obj, ok := msg.(map[string]any)
	if !ok {
		return msg, true
	}
	sender, tagged := obj[model.EnvelopeKeySender]
	if !tagged {
		// senderのないメッセージはストアへ直接投入されたものとしてそのまま配信する
		return msg, true
	}
	if id, _ := sender.(string); id == s.id {
		return nil, false
	}
	return obj[model.EnvelopeKeyMsg], true
}

func isEmpty(v any) bool {
	switch p := v.(type) {
	case nil:
		return true
	case string:
		return p == ""
	case map[string]any:
		return len(p) == 0
	case []any:
		return len(p) == 0
	default:
		return false
	}
}

func (s *Session) flush(channel string, payload any) {
	if s.closed {
		return
	}
	frame, err := model.NewDeliveryFrame(channel, payload)
	if err != nil {
		return
	}
	s.send(frame)
}

func (s *Session) send(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.conn.Send(b); err != nil {
		slog.Debug("送信失敗",
			"event_id", "SEND_ERR",
			"session_id", s.id,
			"error", err,
		)
	}
}

// fail はインフラ障害によりセッションを破棄し、クライアント接続を閉じる。
// 再接続はクライアントに委ねる。
func (s *Session) fail(eventID string, err error) {
	slog.Error("インフラ障害によりセッションを切断",
		"event_id", eventID,
		"session_id", s.id,
		"error", err,
	)
	s.teardown()
}

// teardown は全ての購読と集約タイマーを破棄する。以後ループは処理を受け付けない。
func (s *Session) teardown() {
	if s.closed {
		return
	}
	s.closed = true

	for ch, sub := range s.subs {
		sub.agg.Stop()
		delete(s.subs, ch)
	}
	s.bridge.RemoveAll(context.Background(), s)
	s.cancel()
	s.pending = make(map[string]*pendingQueue)
	s.conn.Close()
	s.exec.Stop()

	slog.Info("セッション終了",
		"event_id", "SESSION_CLOSE",
		"session_id", s.id,
	)
}
