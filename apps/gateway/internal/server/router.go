package server

import "github.com/gin-gonic/gin"

// HealthPath はヘルスチェックのパス。
const HealthPath = "/healthz"

// SetupRouter はルーティングを設定する。
func SetupRouter(engine *gin.Engine, wsPath string, h *Handler) {
	engine.GET(HealthPath, h.HandleHealth)
	engine.GET(wsPath, h.HandleWebSocket)
}
