package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/gateway"
	"github.com/oyaguma3/iris-gateway/pkg/httputil"
)

const healthTimeout = 2 * time.Second

// Pinger はヘルスチェック対象。store.ValkeyClientが実装する。
type Pinger interface {
	Ping(ctx context.Context) error
}

// healthResponse はヘルスチェックレスポンスを表す。
type healthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

// Handler はHTTPハンドラー。
type Handler struct {
	gw       *gateway.Gateway
	store    Pinger
	upgrader websocket.Upgrader
}

// NewHandler は新しいHandlerを生成する。
// ブラウザクライアントは別オリジンから接続するため、Originは検査しない。
func NewHandler(gw *gateway.Gateway, store Pinger) *Handler {
	return &Handler{
		gw:    gw,
		store: store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// HandleHealth はGET /healthz のハンドラー。
func (h *Handler) HandleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		slog.Warn("ヘルスチェック失敗",
			"event_id", "HEALTH_STORE_ERR",
			"error", err,
		)
		httputil.WriteError(c, httputil.ServiceUnavailable("backing store unreachable"))
		return
	}
	c.JSON(http.StatusOK, healthResponse{Status: "ok", Sessions: h.gw.Hub().Count()})
}

// HandleWebSocket はWebSocketアップグレードを行い、接続終了まで処理する。
func (h *Handler) HandleWebSocket(c *gin.Context) {
	if !websocket.IsWebSocketUpgrade(c.Request) {
		httputil.WriteError(c, httputil.UpgradeRequired("websocket upgrade required"))
		return
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("WebSocketアップグレード失敗",
			"event_id", "WS_UPGRADE_ERR",
			"remote_addr", c.Request.RemoteAddr,
			"error", err,
		)
		return
	}

	h.gw.Serve(ws, c.Request.RemoteAddr)
}
