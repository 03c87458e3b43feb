package auth

import (
	"context"
	"crypto/subtle"
	"log/slog"

	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/store"
	"github.com/oyaguma3/iris-gateway/pkg/logging"
)

// Table はValkey上のユーザートークン表で判定する認可方式。
// グローバル判定のみを持ち、チャネル単位の許可はない。
type Table struct {
	table  store.AuthTable
	fields *logging.CommonFields
}

// NewTable は新しいTableを生成する。
func NewTable(table store.AuthTable, fields *logging.CommonFields) *Table {
	if fields == nil {
		fields = logging.NewCommonFields(nil)
	}
	return &Table{table: table, fields: fields}
}

func (*Table) Kind() Kind { return KindTable }

func (*Table) Traits() Traits {
	return Traits{Global: true, Async: true, RequiresIdentity: true, Handshake: true}
}

// Authorize は {ns}:{table_key}:{user_id} の値とユーザートークンを比較する。
// キーが存在しない場合は拒否となる。
func (t *Table) Authorize(ctx context.Context, req Request) (Decision, error) {
	stored, err := t.table.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	d := make(Decision)
	if stored != "" && subtle.ConstantTimeCompare([]byte(stored), []byte(req.UserToken)) == 1 {
		for _, k := range req.Keys() {
			d[k] = FullGrant
		}
		return d, nil
	}

	slog.Warn("ユーザー認証失敗",
		t.fields.AuthLogFields(req.SessionID, "AUTH_DENIED", req.UserID, req.UserToken)...,
	)
	return d, nil
}
