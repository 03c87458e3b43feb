package store

import (
	"errors"
	"fmt"

	"github.com/oyaguma3/iris-gateway/pkg/apperr"
)

var (
	// ErrValkeyUnavailable はValkeyへの接続が利用不可能な場合のエラー
	ErrValkeyUnavailable = errors.New("valkey unavailable")

	// ErrBridgeClosed はブリッジ終了後に操作した場合のエラー
	ErrBridgeClosed = errors.New("store bridge closed")
)

// wrapErr はコマンド失敗をErrValkeyUnavailableとして返す。操作名と対象キーはValkeyErrorに保持する。
func wrapErr(op, key string, err error) error {
	return fmt.Errorf("%w: %w", ErrValkeyUnavailable, apperr.NewValkeyError(op, key, err))
}
