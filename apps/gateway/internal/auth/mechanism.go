// Package auth はチャネル単位の認可方式を提供する。
package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/oyaguma3/iris-gateway/pkg/apperr"
)

// Kind は認可方式の種別。
type Kind string

const (
	KindNone         Kind = "none"
	KindSharedSecret Kind = "shared-secret"
	KindEndpoint     Kind = "endpoint"
	KindTable        Kind = "table"
)

// ParseKind は設定値をKindに変換する。
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindNone, KindSharedSecret, KindEndpoint, KindTable:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", apperr.ErrUnknownMechanism, s)
	}
}

// Action は認可対象の操作。
type Action string

const (
	ActionPub Action = "pub"
	ActionSub Action = "sub"
)

// GlobalKey はグローバル認可を表すキー。
const GlobalKey = ""

// Request は認可要求。
type Request struct {
	SessionID string
	UserID    string
	UserToken string
	// Channels が空の場合はグローバル認可の要求となる
	Channels []string
	Action   Action
	// Token はクライアントが付与したチャネル用トークン（"a"）
	Token string
}

// Keys は判定対象のキー一覧を返す。グローバル要求では [GlobalKey]。
func (r Request) Keys() []string {
	if len(r.Channels) == 0 {
		return []string{GlobalKey}
	}
	return r.Channels
}

// Grant は1チャネル分の許可内容。
type Grant struct {
	Pub bool
	Sub bool
}

// FullGrant はpub/sub両方の許可。
var FullGrant = Grant{Pub: true, Sub: true}

// Allows は操作が許可されているかを返す。
func (g Grant) Allows(a Action) bool {
	switch a {
	case ActionPub:
		return g.Pub
	case ActionSub:
		return g.Sub
	default:
		return false
	}
}

// Decision はキーごとの判定結果。含まれないキーは拒否を表す。
type Decision map[string]Grant

// Lookup はキーの許可内容を返す。
func (d Decision) Lookup(key string) (Grant, bool) {
	g, ok := d[key]
	return g, ok
}

// Traits はセッション側の振る舞いを決める認可方式の性質。
type Traits struct {
	// Global はチャネル操作をグローバル状態のみで判定する
	Global bool
	// Stateless は判定結果をセッションに保持しない（トークンが要求ごとに異なる）
	Stateless bool
	// Async はイベントループ外で判定する
	Async bool
	// RequiresIdentity はauthenticateによるユーザー情報が必要
	RequiresIdentity bool
	// Handshake はauthenticate時にグローバル判定を行う
	Handshake bool
	// AnnouncesID は接続直後にセッションIDを通知する
	AnnouncesID bool
}

// Mechanism は認可方式の共通インターフェース。
// 拒否はエラーではなくDecisionに含めない形で返す。
// エラーは接続障害などのインフラ障害のみを表す。
type Mechanism interface {
	Kind() Kind
	Traits() Traits
	Authorize(ctx context.Context, req Request) (Decision, error)
}
