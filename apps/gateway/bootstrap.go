package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/auth"
	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/config"
	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/store"
	"github.com/oyaguma3/iris-gateway/pkg/logging"
)

// errSentinelMismatch は書き込んだ秘密鍵を読み戻せなかった場合のエラー
var errSentinelMismatch = errors.New("token sentinel read back mismatch")

// writeSentinel は秘密鍵をストアへ書き込み、読み戻して一致を確認する。
// 認可なしの場合も書き込み、疎通確認とする。
func writeSentinel(ctx context.Context, ts store.TokenStore, secret string) error {
	ctx, cancel := context.WithTimeout(ctx, config.ValkeyCommandTimeout)
	defer cancel()
	if err := ts.WriteSecret(ctx, secret); err != nil {
		return fmt.Errorf("write token sentinel: %w", err)
	}
	got, err := ts.ReadSecret(ctx)
	if err != nil {
		return fmt.Errorf("read token sentinel: %w", err)
	}
	if got != secret {
		return errSentinelMismatch
	}
	return nil
}

// newMechanism は設定に応じた認可方式を生成する。
func newMechanism(cfg *config.Config, vc *store.ValkeyClient, ns store.Namespace, secret string, fields *logging.CommonFields) (auth.Mechanism, error) {
	kind, err := auth.ParseKind(string(cfg.AuthMechanism))
	if err != nil {
		return nil, err
	}
	switch kind {
	case auth.KindSharedSecret:
		return auth.NewSharedSecret(secret), nil
	case auth.KindTable:
		return auth.NewTable(store.NewAuthTable(vc, ns, cfg.AuthTableKey), fields), nil
	case auth.KindEndpoint:
		cache := store.NewAuthCache(vc, ns, cfg.AuthCachePrefix, config.AuthCacheTTL)
		return auth.NewEndpoint(cfg.AuthEndpointURL, cache, fields), nil
	default:
		return auth.NewNone(), nil
	}
}

type httpShutdowner interface {
	Shutdown(ctx context.Context) error
}

type sessionCloser interface {
	Shutdown()
}

type bridgeCloser interface {
	Close() error
}

// shutdown は停止処理を行う。
// 新規接続の受付を止めてからセッションを閉じ、最後にブリッジを閉じる。
func shutdown(ctx context.Context, srv httpShutdowner, gw sessionCloser, bridge bridgeCloser) error {
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("シャットダウンエラー", "error", err)
	}
	gw.Shutdown()
	return bridge.Close()
}
