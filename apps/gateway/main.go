// Package main はirisゲートウェイ（WebSocket Pub/Subゲートウェイ）のエントリーポイント。
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/auth"
	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/config"
	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/gateway"
	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/server"
	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/session"
	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/store"
	"github.com/oyaguma3/iris-gateway/pkg/logging"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. 設定読み込み
	cfg, err := config.Load()
	if err != nil {
		slog.Error("設定読み込み失敗", "error", err)
		os.Exit(1)
	}

	// 2. ロガー初期化
	initLogger(cfg)

	slog.Info("gateway起動開始",
		"listen_addr", cfg.ListenAddr(),
		"namespace", cfg.Namespace,
		"auth_mechanism", string(cfg.AuthMechanism),
		"aggregation_window", cfg.AggregationWindow().String(),
	)

	// 3. Valkeyクライアント初期化
	valkeyClient, err := store.NewValkeyClient(cfg)
	if err != nil {
		slog.Error("Valkey接続失敗",
			"event_id", "VALKEY_CONN_ERR",
			"error", err,
		)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	ns := store.Namespace(cfg.Namespace)

	// 4. プロセス秘密鍵の生成と書き込み
	secret, err := auth.GenerateSecret()
	if err != nil {
		slog.Error("秘密鍵生成失敗", "error", err)
		os.Exit(1)
	}
	if err := writeSentinel(context.Background(), store.NewTokenStore(valkeyClient, ns), secret); err != nil {
		slog.Error("Valkey書き込み失敗",
			"event_id", "VALKEY_CONN_ERR",
			"error", err,
		)
		os.Exit(1)
	}

	slog.Info("Valkey接続完了", "store", valkeyClient.Target())

	// 5. 認可方式
	fields := logging.NewCommonFields(logging.NewMasker(cfg.LogMaskToken))
	mech, err := newMechanism(cfg, valkeyClient, ns, secret, fields)
	if err != nil {
		slog.Error("認可方式の初期化失敗", "error", err)
		os.Exit(1)
	}

	// 6. Pub/Subブリッジ
	bridge := store.NewBridge(valkeyClient, ns)

	// 7. ゲートウェイ
	gw := gateway.New(bridge, mech,
		session.WithWindow(cfg.AggregationWindow()),
		session.WithLogFields(fields),
	)

	// 8. HTTPサーバー
	srv := server.New(cfg, server.NewHandler(gw, valkeyClient))

	// 9. 起動とシグナル待機 → Graceful Shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bridge.Run(gctx)
	})
	g.Go(srv.Run)
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("シャットダウン開始")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		return shutdown(shutdownCtx, srv, gw, bridge)
	})

	if err := g.Wait(); err != nil {
		slog.Error("gateway異常終了", "error", err)
		os.Exit(1)
	}

	slog.Info("gateway停止完了")
}

// initLogger はロガーを初期化する。
func initLogger(cfg *config.Config) {
	level := slog.LevelInfo
	switch strings.ToUpper(cfg.LogLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h).With("app", "gateway"))
}
