package store

//go:generate mockgen -source=interfaces.go -destination=../mocks/mock_store.go -package=mocks

import "context"

// TokenStore はプロセス秘密鍵の公開先を定義する
type TokenStore interface {
	// WriteSecret は秘密鍵を書き込む
	WriteSecret(ctx context.Context, secret string) error
	// ReadSecret は書き込まれた秘密鍵を取得する（未存在時は空文字列とnilを返す）
	ReadSecret(ctx context.Context) (string, error)
}

// AuthCache は認可結果キャッシュへのアクセスを定義する
type AuthCache interface {
	// Lookup はチャネルごとのキャッシュ済みトークンを取得する
	// 空文字のチャネルはグローバル認可を表す。未キャッシュのチャネルは結果に含まない
	Lookup(ctx context.Context, userID string, channels []string) (map[string]string, error)
	// Store はチャネルごとにトークンをTTL付きで書き込む
	Store(ctx context.Context, userID, token string, channels []string) error
}

// AuthTable はユーザーごとの認可トークン表へのアクセスを定義する
type AuthTable interface {
	// Get はユーザーのトークンを取得する（未存在時は空文字列とnilを返す）
	Get(ctx context.Context, userID string) (string, error)
}
