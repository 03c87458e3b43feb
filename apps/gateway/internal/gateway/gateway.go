package gateway

import (
	"log/slog"

	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/auth"
	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/session"
	"github.com/oyaguma3/iris-gateway/pkg/logging"
)

// Gateway はWebSocket接続ごとにセッションを生成して駆動する。
type Gateway struct {
	hub    *Hub
	bridge session.Bridge
	mech   auth.Mechanism
	opts   []session.Option
}

// New は新しいGatewayを生成する。
func New(bridge session.Bridge, mech auth.Mechanism, opts ...session.Option) *Gateway {
	return &Gateway{
		hub:    NewHub(),
		bridge: bridge,
		mech:   mech,
		opts:   opts,
	}
}

// Hub はセッションのレジストリを返す。
func (g *Gateway) Hub() *Hub { return g.hub }

// Serve はアップグレード済みの接続を処理する。接続が切れるまで戻らない。
func (g *Gateway) Serve(ws WSConn, remoteAddr string) {
	client := newClient(ws, remoteAddr)
	s := session.New(client, g.bridge, g.mech, g.opts...)
	g.hub.Register(s)

	slog.Debug("WebSocket接続受付",
		logging.WithEventID("WS_ACCEPT"),
		logging.WithSessionID(s.ID()),
		logging.WithRemoteAddr(remoteAddr),
	)

	go client.writePump()
	s.Start()
	client.readPump(s)

	s.Close()
	client.Close()
	g.hub.Unregister(s)
}

// Shutdown は全セッションを閉じる。
func (g *Gateway) Shutdown() {
	g.hub.CloseAll()
}
