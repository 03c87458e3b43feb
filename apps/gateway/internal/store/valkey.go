// Package store はValkeyへのデータアクセスとPub/Subブリッジを提供する。
package store

import (
	"context"
	"fmt"

	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/config"
	"github.com/oyaguma3/iris-gateway/pkg/valkey"
	"github.com/redis/go-redis/v9"
)

// ValkeyClient はValkeyクライアントをラップする。
type ValkeyClient struct {
	client *redis.Client
	target string
}

// NewValkeyClient は新しいValkeyClientを生成する。
func NewValkeyClient(cfg *config.Config) (*ValkeyClient, error) {
	opts, err := valkey.ParseURI(cfg.StoreURI)
	if err != nil {
		return nil, err
	}
	opts.WithTimeouts(config.ValkeyConnectTimeout, config.ValkeyCommandTimeout, config.ValkeyCommandTimeout).
		WithPool(config.ValkeyPoolSize, config.ValkeyMinIdleConns)

	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}
	return &ValkeyClient{client: client, target: opts.String()}, nil
}

// NewValkeyClientFromRedis は既存のredis.Clientをラップする。
func NewValkeyClientFromRedis(client *redis.Client) *ValkeyClient {
	return &ValkeyClient{client: client, target: client.Options().Addr}
}

// Ping は疎通確認を行う。
func (v *ValkeyClient) Ping(ctx context.Context) error {
	if err := v.client.Ping(ctx).Err(); err != nil {
		return wrapErr("PING", "", err)
	}
	return nil
}

// Close は接続を閉じる。
func (v *ValkeyClient) Close() error {
	return v.client.Close()
}

// Client は内部のredis.Clientを返す。
func (v *ValkeyClient) Client() *redis.Client {
	return v.client
}

// Target はパスワードを除いた接続先を返す。
func (v *ValkeyClient) Target() string {
	return v.target
}
