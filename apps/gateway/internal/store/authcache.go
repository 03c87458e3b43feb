package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// authCache はAuthCacheインターフェースの実装。
// キーは {ns}:{prefix}:{user_id}:{channel}。
type authCache struct {
	vc     *ValkeyClient
	ns     Namespace
	prefix string
	ttl    time.Duration
}

// NewAuthCache は新しいAuthCacheを生成する。
func NewAuthCache(vc *ValkeyClient, ns Namespace, prefix string, ttl time.Duration) AuthCache {
	return &authCache{vc: vc, ns: ns, prefix: prefix, ttl: ttl}
}

func (c *authCache) key(userID, channel string) string {
	return c.ns.Key(c.prefix, userID, channel)
}

// Lookup はMGETで一括取得する。
func (c *authCache) Lookup(ctx context.Context, userID string, channels []string) (map[string]string, error) {
	if len(channels) == 0 {
		return map[string]string{}, nil
	}
	keys := make([]string, len(channels))
	for i, ch := range channels {
		keys[i] = c.key(userID, ch)
	}

	vals, err := c.vc.Client().MGet(ctx, keys...).Result()
	if err != nil {
		return nil, wrapErr("MGET", c.key(userID, "*"), err)
	}

	out := make(map[string]string, len(channels))
	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[channels[i]] = s
		}
	}
	return out, nil
}

// Store はSETとEXPIREをパイプラインで書き込む。
func (c *authCache) Store(ctx context.Context, userID, token string, channels []string) error {
	if len(channels) == 0 {
		return nil
	}
	_, err := c.vc.Client().TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, ch := range channels {
			k := c.key(userID, ch)
			p.Set(ctx, k, token, 0)
			p.Expire(ctx, k, c.ttl)
		}
		return nil
	})
	if err != nil {
		return wrapErr("SET", c.key(userID, "*"), err)
	}
	return nil
}
