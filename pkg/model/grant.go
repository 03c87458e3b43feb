package model

import (
	"bytes"
	"encoding/json"
)

// GrantToken は認可エンドポイントが返すトークン値。
// 文字列トークンまたはfalse/nullを受け付け、false/nullは空文字列として扱う。
type GrantToken string

// UnmarshalJSON はjson.Unmarshalerを実装する。
func (g *GrantToken) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")), bytes.Equal(data, []byte("false")):
		*g = ""
		return nil
	case bytes.Equal(data, []byte("true")):
		*g = "true"
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*g = GrantToken(s)
	return nil
}

// Granted は権限が付与されているかを返す。
func (g GrantToken) Granted() bool {
	return g != ""
}

// ChannelGrant は認可エンドポイントのチャンネル単位の応答。
// 例: {"pub": "token-or-false", "sub": "token-or-false"}
type ChannelGrant struct {
	Pub *GrantToken `json:"pub,omitempty"`
	Sub *GrantToken `json:"sub,omitempty"`
}

// HasAny はpub/subのいずれかのフィールドを含むかを返す。
func (c *ChannelGrant) HasAny() bool {
	return c != nil && (c.Pub != nil || c.Sub != nil)
}

// CanPub はpubが許可されているかを返す。
func (c *ChannelGrant) CanPub() bool {
	return c != nil && c.Pub != nil && c.Pub.Granted()
}

// CanSub はsubが許可されているかを返す。
func (c *ChannelGrant) CanSub() bool {
	return c != nil && c.Sub != nil && c.Sub.Granted()
}

// GrantResponse は認可エンドポイントの200応答ボディ。
type GrantResponse map[string]*ChannelGrant
