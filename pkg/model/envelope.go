package model

import "encoding/json"

// Envelopeのキー
const (
	EnvelopeKeyMsg    = "msg"
	EnvelopeKeySender = "sender"
)

// Envelope はストアへpublishする際のラッパー。
// senderにより自己エコーを抑止する。
type Envelope struct {
	Msg    json.RawMessage `json:"msg"`
	Sender string          `json:"sender"`
}

// NewEnvelope は新しいEnvelopeを生成する。
func NewEnvelope(payload json.RawMessage, sender string) *Envelope {
	return &Envelope{
		Msg:    payload,
		Sender: sender,
	}
}
