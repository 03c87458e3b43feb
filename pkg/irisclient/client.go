// Package irisclient はirisゲートウェイの再接続付きクライアントを提供する。
package irisclient

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
	"github.com/oyaguma3/iris-gateway/pkg/model"
)

// 再接続バックオフ設定
const (
	RetryInitialInterval = 1 * time.Second
	RetryMaxInterval     = 32 * time.Second
	RetryMultiplier      = 2
)

// 認可トークンを求める操作
const (
	ActionPub = "pub"
	ActionSub = "sub"
)

// Handler はチャネルへの配送を受け取る。
type Handler func(channel string, msg json.RawMessage)

// TokenFunc はチャネルと操作に対応する認可トークンを返す。空文字列なら付与しない。
type TokenFunc func(channel, action string) string

// Option はClientの設定を変更する。
type Option func(*Client)

// WithDialer はWebSocketダイアラーを設定する。
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// WithHeader は接続時のHTTPヘッダーを設定する。
func WithHeader(h http.Header) Option {
	return func(c *Client) { c.header = h }
}

// WithTokenFunc は認可トークンの取得元を設定する。
func WithTokenFunc(f TokenFunc) Option {
	return func(c *Client) { c.tokens = f }
}

// WithBackOff は再接続バックオフを差し替える。
func WithBackOff(b *backoff.ExponentialBackOff) Option {
	return func(c *Client) { c.bo = b }
}

// WithOnAuth はグローバル認証成功時のコールバックを設定する。
func WithOnAuth(f func()) Option {
	return func(c *Client) { c.onAuth = f }
}

type subscription struct {
	recipe   string
	handlers []Handler
}

type pendingPub struct {
	channel string
	payload json.RawMessage
}

// Client はゲートウェイへの接続を維持する。
// 切断中の発行は接続時まで保留し、再接続時には認証と購読をやり直す。
type Client struct {
	url    string
	dialer *websocket.Dialer
	header http.Header
	tokens TokenFunc
	onAuth func()
	bo     *backoff.ExponentialBackOff

	writeMu sync.Mutex

	mu        sync.Mutex
	conn      *websocket.Conn
	sessionID string
	subs      map[string]*subscription
	pending   []pendingPub
	auth      *model.AuthFrame
}

// New は新しいClientを生成する。接続はRunで開始する。
func New(url string, opts ...Option) *Client {
	c := &Client{
		url:    url,
		dialer: websocket.DefaultDialer,
		tokens: func(string, string) string { return "" },
		bo: &backoff.ExponentialBackOff{
			InitialInterval:     RetryInitialInterval,
			RandomizationFactor: 0,
			Multiplier:          RetryMultiplier,
			MaxInterval:         RetryMaxInterval,
		},
		subs: make(map[string]*subscription),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.bo.Reset()
	return c
}

// Connected は接続中かどうかを返す。
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// SessionID はゲートウェイから通知されたセッションIDを返す。
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Run は接続と再接続を繰り返す。ctxがキャンセルされるまで戻らない。
func (c *Client) Run(ctx context.Context) error {
	for {
		conn, _, err := c.dialer.DialContext(ctx, c.url, c.header)
		if err == nil {
			c.bo.Reset()
			slog.Info("ゲートウェイ接続完了", "event_id", "CLIENT_CONNECTED", "url", c.url)
			c.serve(ctx, conn)
		} else if ctx.Err() == nil {
			slog.Warn("ゲートウェイ接続失敗",
				"event_id", "CLIENT_DIAL_ERR",
				"url", c.url,
				"error", err,
			)
		}
		if ctx.Err() != nil {
			return nil
		}

		delay := c.nextDelay()
		slog.Info("再接続待機", "event_id", "CLIENT_RETRY", "delay", delay.String())

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// nextDelay は次の再接続までの待機時間を返す。
// 上限に達した時点で保留中の発行を破棄する。購読は保持する。
func (c *Client) nextDelay() time.Duration {
	d := c.bo.NextBackOff()
	if d >= c.bo.MaxInterval {
		c.mu.Lock()
		dropped := len(c.pending)
		c.pending = nil
		c.mu.Unlock()
		if dropped > 0 {
			slog.Warn("保留中の発行を破棄", "event_id", "CLIENT_PENDING_DROP", "count", dropped)
		}
	}
	return d
}

// Authenticate はグローバル認証を要求する。再接続時にも再送する。
func (c *Client) Authenticate(userID, token string) error {
	frame := &model.AuthFrame{Auth: userID, Token: token}
	c.mu.Lock()
	c.auth = frame
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	return c.writeJSON(conn, frame)
}

// Subscribe はチャネル群を購読する。既に購読中のチャネルにはハンドラーのみ追加する。
func (c *Client) Subscribe(h Handler, recipe string, channels ...string) error {
	var added []string
	c.mu.Lock()
	for _, ch := range channels {
		if sub, ok := c.subs[ch]; ok {
			sub.handlers = append(sub.handlers, h)
			continue
		}
		c.subs[ch] = &subscription{recipe: recipe, handlers: []Handler{h}}
		added = append(added, ch)
	}
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	for _, ch := range added {
		if err := c.writeJSON(conn, model.NewSubscribeFrame(ch, recipe, c.tokens(ch, ActionSub))); err != nil {
			return err
		}
	}
	return nil
}

// Unsubscribe はチャネル群の購読を解除する。全ハンドラーが外れる。
func (c *Client) Unsubscribe(channels ...string) error {
	var removed []string
	c.mu.Lock()
	for _, ch := range channels {
		if _, ok := c.subs[ch]; ok {
			delete(c.subs, ch)
			removed = append(removed, ch)
		}
	}
	conn := c.conn
	c.mu.Unlock()

	if conn == nil || len(removed) == 0 {
		return nil
	}
	for _, ch := range removed {
		frame := &model.UnsubscribeFrame{Unsub: ch, A: c.tokens(ch, ActionSub)}
		if err := c.writeJSON(conn, frame); err != nil {
			return err
		}
	}
	return nil
}

// Publish はチャネルへ発行する。未接続なら接続時まで保留する。
// 自分の発行は自分には配送されない。
func (c *Client) Publish(channel string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.pending = append(c.pending, pendingPub{channel: channel, payload: raw})
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	return c.writeJSON(conn, c.publishFrame(channel, raw))
}

func (c *Client) publishFrame(channel string, raw json.RawMessage) *model.PublishFrame {
	return model.NewPublishFrame(channel, raw, c.tokens(channel, ActionPub))
}

// serve は接続が切れるまで受信する。
func (c *Client) serve(ctx context.Context, conn *websocket.Conn) {
	// 接続を公開する前に再送を書き終え、以後の送信が後に並ぶようにする
	c.writeMu.Lock()
	c.mu.Lock()
	c.conn = conn
	c.sessionID = ""
	frames := c.replayLocked()
	c.mu.Unlock()
	for _, f := range frames {
		if err := conn.WriteJSON(f); err != nil {
			slog.Warn("再送失敗", "event_id", "CLIENT_WRITE_ERR", "error", err)
			break
		}
	}
	c.writeMu.Unlock()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				slog.Warn("ゲートウェイ切断", "event_id", "CLIENT_DISCONNECTED", "error", err)
			}
			break
		}
		c.handle(data)
	}

	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	_ = conn.Close()
}

// replayLocked は接続直後に送るフレームを組み立てる。認証、購読、保留中の発行の順。
func (c *Client) replayLocked() []any {
	var frames []any
	if c.auth != nil {
		frames = append(frames, c.auth)
	}
	channels := make([]string, 0, len(c.subs))
	for ch := range c.subs {
		channels = append(channels, ch)
	}
	sort.Strings(channels)
	for _, ch := range channels {
		frames = append(frames, model.NewSubscribeFrame(ch, c.subs[ch].recipe, c.tokens(ch, ActionSub)))
	}
	for _, p := range c.pending {
		frames = append(frames, c.publishFrame(p.channel, p.payload))
	}
	c.pending = nil
	return frames
}

// handle はサーバーフレームを処理する。不正なフレームは破棄する。
func (c *Client) handle(data []byte) {
	var f model.ServerFrame
	if err := json.Unmarshal(data, &f); err != nil {
		slog.Debug("不正なフレームを破棄",
			"event_id", "CLIENT_FRAME_DROP",
			"frame", strings.TrimSpace(string(data)),
			"error", err,
		)
		return
	}

	switch {
	case f.ID != "":
		c.mu.Lock()
		c.sessionID = f.ID
		c.mu.Unlock()
	case f.Auth:
		if c.onAuth != nil {
			c.onAuth()
		}
	case f.IsDelivery():
		c.mu.Lock()
		var handlers []Handler
		if sub, ok := c.subs[f.Chan]; ok {
			handlers = append(handlers, sub.handlers...)
		}
		c.mu.Unlock()
		for _, h := range handlers {
			h(f.Chan, f.Msg)
		}
	}
}

func (c *Client) writeJSON(conn *websocket.Conn, v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteJSON(v); err != nil {
		_ = conn.Close()
		return err
	}
	return nil
}
