// Package model はゲートウェイとクライアント間で共有するワイヤーフォーマットを定義する。
package model

// クライアント→サーバーのフレームキー
const (
	KeySub     = "sub"
	KeyAgg     = "agg"
	KeyPub     = "pub"
	KeyChan    = "chan"
	KeyUnsub   = "unsub"
	KeyAuthTok = "a"
	KeyAuth    = "auth"
	KeyToken   = "token"
)

// ChannelSeparator は複数チャンネル指定時の区切り文字。
const ChannelSeparator = ","

// SubscribeFrame は購読要求フレームを表す。
// 例: {"sub": "chanA,chanB", "agg": "additive", "a": "token"}
type SubscribeFrame struct {
	Sub string `json:"sub"`           // カンマ区切りのチャンネル名
	Agg string `json:"agg,omitempty"` // 集約レシピ名
	A   string `json:"a,omitempty"`   // 認可トークン
}

// PublishFrame は配信要求フレームを表す。
type PublishFrame struct {
	Pub  any    `json:"pub"`         // 任意のJSONペイロード
	Chan string `json:"chan"`        // 配信先チャンネル
	A    string `json:"a,omitempty"` // 認可トークン
}

// UnsubscribeFrame は購読解除要求フレームを表す。
type UnsubscribeFrame struct {
	Unsub string `json:"unsub"`       // カンマ区切りのチャンネル名
	A     string `json:"a,omitempty"` // 認可トークン
}

// AuthFrame はグローバル認証要求フレームを表す。
type AuthFrame struct {
	Auth  string `json:"auth"`  // ユーザーID
	Token string `json:"token"` // ユーザートークン
}

// NewSubscribeFrame は新しいSubscribeFrameを生成する。
func NewSubscribeFrame(channels, agg, token string) *SubscribeFrame {
	return &SubscribeFrame{
		Sub: channels,
		Agg: agg,
		A:   token,
	}
}

// NewPublishFrame は新しいPublishFrameを生成する。
func NewPublishFrame(channel string, payload any, token string) *PublishFrame {
	return &PublishFrame{
		Pub:  payload,
		Chan: channel,
		A:    token,
	}
}
