package logging

import (
	"log/slog"
	"time"
)

// ログフィールド名の定数
const (
	FieldSessionID  = "session_id"
	FieldEventID    = "event_id"
	FieldError      = "error"
	FieldRemoteAddr = "remote_addr"
	FieldChannel    = "channel"
	FieldAction     = "action"
	FieldLatencyMs  = "latency_ms"
	FieldHTTPStatus = "http_status"
	FieldUserID     = "user_id"
	FieldToken      = "token"
	FieldRequestID  = "request_id"
	FieldRecipe     = "recipe"
)

// WithSessionID はセッションIDのslog.Attrを返す。
func WithSessionID(sessionID string) slog.Attr {
	return slog.String(FieldSessionID, sessionID)
}

// WithEventID はイベントIDのslog.Attrを返す。
func WithEventID(eventID string) slog.Attr {
	return slog.String(FieldEventID, eventID)
}

// WithError はエラーのslog.Attrを返す。
// nilの場合は空のAttrを返し、ハンドラはこれを出力しない。
func WithError(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(FieldError, err.Error())
}

// WithRemoteAddr は接続元アドレスのslog.Attrを返す。
func WithRemoteAddr(addr string) slog.Attr {
	return slog.String(FieldRemoteAddr, addr)
}

// WithChannel はチャンネル名のslog.Attrを返す。
func WithChannel(channel string) slog.Attr {
	return slog.String(FieldChannel, channel)
}

// WithAction は認可アクション（pub/sub）のslog.Attrを返す。
func WithAction(action string) slog.Attr {
	return slog.String(FieldAction, action)
}

// WithLatency はレイテンシをミリ秒単位のslog.Attrで返す。
func WithLatency(d time.Duration) slog.Attr {
	return slog.Int64(FieldLatencyMs, d.Milliseconds())
}

// WithRequestID はHTTPリクエストIDのslog.Attrを返す。
func WithRequestID(id string) slog.Attr {
	return slog.String(FieldRequestID, id)
}

// WithRecipe は集約方式のslog.Attrを返す。
func WithRecipe(recipe string) slog.Attr {
	return slog.String(FieldRecipe, recipe)
}

// WithHTTPStatus はHTTPステータスコードのslog.Attrを返す。
func WithHTTPStatus(status int) slog.Attr {
	return slog.Int(FieldHTTPStatus, status)
}

// CommonFields はマスキング設定を保持するログフィールド生成器。
type CommonFields struct {
	masker *Masker
}

// NewCommonFields は新しいCommonFieldsを生成する。
func NewCommonFields(masker *Masker) *CommonFields {
	if masker == nil {
		masker = NewMasker(false)
	}
	return &CommonFields{masker: masker}
}

// WithToken はマスキングされたトークンのslog.Attrを返す。
func (cf *CommonFields) WithToken(token string) slog.Attr {
	return slog.String(FieldToken, cf.masker.Token(token))
}

// AuthLogFields は認可ログ用の共通フィールドを返す。
func (cf *CommonFields) AuthLogFields(sessionID, eventID, userID, token string) []any {
	return []any{
		WithSessionID(sessionID),
		WithEventID(eventID),
		slog.String(FieldUserID, userID),
		cf.WithToken(token),
	}
}
