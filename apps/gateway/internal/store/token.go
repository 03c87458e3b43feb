package store

import (
	"context"

	"github.com/oyaguma3/iris-gateway/pkg/valkey"
)

// tokenStore はTokenStoreインターフェースの実装。
type tokenStore struct {
	vc *ValkeyClient
	ns Namespace
}

// NewTokenStore は新しいTokenStoreを生成する。
func NewTokenStore(vc *ValkeyClient, ns Namespace) TokenStore {
	return &tokenStore{vc: vc, ns: ns}
}

// WriteSecret は {ns}:__iris_token に秘密鍵を書き込む。
// 起動時のストア疎通確認を兼ねる。
func (s *tokenStore) WriteSecret(ctx context.Context, secret string) error {
	if err := s.vc.Client().Set(ctx, s.ns.Key(KeyTokenSentinel), secret, 0).Err(); err != nil {
		return wrapErr("SET", s.ns.Key(KeyTokenSentinel), err)
	}
	return nil
}

// ReadSecret は書き込まれた秘密鍵を取得する。
func (s *tokenStore) ReadSecret(ctx context.Context) (string, error) {
	val, err := s.vc.Client().Get(ctx, s.ns.Key(KeyTokenSentinel)).Result()
	if err != nil {
		if valkey.IsKeyNotFound(err) {
			return "", nil
		}
		return "", wrapErr("GET", s.ns.Key(KeyTokenSentinel), err)
	}
	return val, nil
}
