package session

//go:generate mockgen -source=interfaces.go -destination=../mocks/mock_session.go -package=mocks

import (
	"context"

	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/store"
)

// Conn はクライアント接続の送信側を定義する
type Conn interface {
	// Send はフレームを送信キューへ積む（ブロックしない）
	Send(frame []byte) error
	// Close は接続を閉じる
	Close()
}

// Bridge はストアのPub/Subブリッジを定義する
type Bridge interface {
	// Subscribe はチャネルへの関心を登録する
	Subscribe(ctx context.Context, channel string, sub store.Subscriber) error
	// Unsubscribe はチャネルへの関心を解除する
	Unsubscribe(ctx context.Context, channel string, sub store.Subscriber) error
	// RemoveAll は購読者の全ての関心を解除する
	RemoveAll(ctx context.Context, sub store.Subscriber)
	// Publish はチャネルへ発行する
	Publish(ctx context.Context, channel string, payload []byte) error
}
