package gateway

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/config"
	"github.com/oyaguma3/iris-gateway/pkg/logging"
)

// ErrSendQueueFull は送信キュー溢れで接続を閉じた場合のエラー。
var ErrSendQueueFull = errors.New("send queue full")

// ErrConnClosed は閉じた接続への送信エラー。
var ErrConnClosed = errors.New("connection closed")

// WSConn は読み書きポンプで使うWebSocket操作。*websocket.Connが実装する。
type WSConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Client は1本のWebSocket接続。session.Connを実装する。
type Client struct {
	ws         WSConn
	remoteAddr string
	send       chan []byte
	closed     chan struct{}
	closeOnce  sync.Once
}

func newClient(ws WSConn, remoteAddr string) *Client {
	return &Client{
		ws:         ws,
		remoteAddr: remoteAddr,
		send:       make(chan []byte, config.WSSendQueueSize),
		closed:     make(chan struct{}),
	}
}

// RemoteAddr は接続元アドレスを返す。
func (c *Client) RemoteAddr() string { return c.remoteAddr }

// Send はフレームを送信キューへ積む。キューが満杯なら接続を閉じる。
func (c *Client) Send(frame []byte) error {
	select {
	case <-c.closed:
		return ErrConnClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	default:
		slog.Warn("送信キュー溢れのため切断",
			logging.WithEventID("WS_QUEUE_FULL"),
			logging.WithRemoteAddr(c.remoteAddr),
		)
		c.Close()
		return ErrSendQueueFull
	}
}

// Close は接続を閉じる。複数回呼んでもよい。
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.ws.Close()
	})
}

// Done は接続が閉じられたときにcloseされる。
func (c *Client) Done() <-chan struct{} { return c.closed }

// readPump はフレームを読み取り、デコードしてtへ渡す。接続が切れるまで戻らない。
func (c *Client) readPump(t Target) {
	c.ws.SetReadLimit(config.WSMaxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(config.WSPongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(config.WSPongWait))
	})

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("WebSocket読み取りエラー",
					logging.WithEventID("WS_READ_ERR"),
					logging.WithRemoteAddr(c.remoteAddr),
					logging.WithError(err),
				)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		cmd, err := Decode(data)
		if err != nil {
			slog.Debug("不正なフレームを破棄",
				logging.WithEventID("FRAME_DROP"),
				logging.WithRemoteAddr(c.remoteAddr),
				logging.WithError(err),
			)
			continue
		}
		Dispatch(cmd, t)
	}
}

// writePump は送信キューのフレームを書き出し、定期的にPingを送る。
func (c *Client) writePump() {
	ticker := time.NewTicker(config.WSPingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.closed:
			_ = c.ws.SetWriteDeadline(time.Now().Add(config.WSWriteWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(config.WSWriteWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				slog.Warn("WebSocket書き込みエラー",
					logging.WithEventID("WS_WRITE_ERR"),
					logging.WithRemoteAddr(c.remoteAddr),
					logging.WithError(err),
				)
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(config.WSWriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
