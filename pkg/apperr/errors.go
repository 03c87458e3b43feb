// Package apperr は共通エラー定義を提供する。
package apperr

import "errors"

// 認可関連エラー
var (
	// ErrUnknownMechanism は未サポートの認可方式エラー
	ErrUnknownMechanism = errors.New("unknown auth mechanism")
	// ErrAuthority は認可エンドポイントエラー
	ErrAuthority = errors.New("auth authority error")
)

// プロトコル関連エラー
var (
	// ErrMalformedFrame は不正なフレームエラー
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrUnknownCommand はどのコマンドにも該当しないフレームのエラー
	ErrUnknownCommand = errors.New("unknown command")
)
