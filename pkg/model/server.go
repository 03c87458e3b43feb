package model

import "encoding/json"

// IDFrame は接続直後に送信するセッションID通知フレーム。
// shared-secret方式の場合のみ送信される。
type IDFrame struct {
	ID string `json:"id"`
}

// AuthOKFrame はグローバル認証成功通知フレーム。
type AuthOKFrame struct {
	Auth bool `json:"auth"`
}

// DeliveryFrame はチャンネルメッセージの配送フレーム。
type DeliveryFrame struct {
	Chan string          `json:"chan"`
	Msg  json.RawMessage `json:"msg"`
}

// NewDeliveryFrame は任意の値からDeliveryFrameを生成する。
func NewDeliveryFrame(channel string, msg any) (*DeliveryFrame, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return &DeliveryFrame{Chan: channel, Msg: raw}, nil
}

// ServerFrame はクライアント側でサーバーフレームを判別するための構造体。
type ServerFrame struct {
	ID   string          `json:"id,omitempty"`
	Auth bool            `json:"auth,omitempty"`
	Chan string          `json:"chan,omitempty"`
	Msg  json.RawMessage `json:"msg,omitempty"`
}

// IsDelivery は配送フレームかどうかを返す。
func (f *ServerFrame) IsDelivery() bool {
	return f.Chan != "" && len(f.Msg) > 0
}
