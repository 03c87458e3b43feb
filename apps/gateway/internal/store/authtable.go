package store

import (
	"context"

	"github.com/oyaguma3/iris-gateway/pkg/valkey"
)

// authTable はAuthTableインターフェースの実装。
// キーは {ns}:{table_key}:{user_id}。
type authTable struct {
	vc       *ValkeyClient
	ns       Namespace
	tableKey string
}

// NewAuthTable は新しいAuthTableを生成する。
func NewAuthTable(vc *ValkeyClient, ns Namespace, tableKey string) AuthTable {
	return &authTable{vc: vc, ns: ns, tableKey: tableKey}
}

// Get はユーザーのトークンを取得する。
func (t *authTable) Get(ctx context.Context, userID string) (string, error) {
	val, err := t.vc.Client().Get(ctx, t.ns.Key(t.tableKey, userID)).Result()
	if err != nil {
		if valkey.IsKeyNotFound(err) {
			return "", nil
		}
		return "", wrapErr("GET", t.ns.Key(t.tableKey, userID), err)
	}
	return val, nil
}
