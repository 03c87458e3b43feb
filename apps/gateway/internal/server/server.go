// Package server はHTTPサーバーの管理を提供する。
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/config"
)

// Server はHTTPサーバーを管理する。
type Server struct {
	engine *gin.Engine
	server *http.Server
	cfg    *config.Config
}

// New は新しいServerを生成する。
func New(cfg *config.Config, h *Handler) *Server {
	gin.SetMode(cfg.GinMode)

	engine := gin.New()

	engine.Use(RequestIDMiddleware())
	engine.Use(LoggingMiddleware())
	engine.Use(RecoveryMiddleware())

	SetupRouter(engine, cfg.WSPath, h)

	return &Server{
		engine: engine,
		server: &http.Server{
			Addr:    cfg.ListenAddr(),
			Handler: engine,
		},
		cfg: cfg,
	}
}

// Handler はルーティング済みのhttp.Handlerを返す。
func (s *Server) Handler() http.Handler { return s.engine }

// Run はサーバーを起動する。Shutdown後はnilを返す。
func (s *Server) Run() error {
	slog.Info("HTTPサーバー起動", "addr", s.cfg.ListenAddr(), "ws_path", s.cfg.WSPath)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown はサーバーをシャットダウンする。
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("HTTPサーバー停止")
	return s.server.Shutdown(ctx)
}
