package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrCircuitOpen は認可エンドポイントへのCircuit BreakerがOpenの場合のエラー
	ErrCircuitOpen = errors.New("auth endpoint circuit open")

	// ErrInvalidResponse は200応答のボディが不正な場合のエラー
	ErrInvalidResponse = errors.New("invalid response from auth endpoint")
)

// maxErrorBody はStatusErrorに保持する応答ボディの上限バイト数
const maxErrorBody = 256

// StatusError は認可エンドポイントが200以外を返したことを表す。
// 要求の拒否として扱い、セッションは切断しない。
type StatusError struct {
	StatusCode int
	Body       string
}

func newStatusError(code int, body []byte) *StatusError {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &StatusError{StatusCode: code, Body: string(body)}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("auth endpoint returned %d: %s", e.StatusCode, e.Body)
}

// tripsBreaker はCircuit Breakerの失敗として数えるかを返す。5xxのみが対象。
func (e *StatusError) tripsBreaker() bool {
	return e.StatusCode >= 500
}
