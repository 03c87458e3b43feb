// Package gateway はWebSocket接続とセッションを仲介する。
package gateway

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/session"
	"github.com/oyaguma3/iris-gateway/pkg/apperr"
	"github.com/oyaguma3/iris-gateway/pkg/model"
)

// CommandKind はクライアントコマンドの種別。
type CommandKind int

const (
	CmdSubscribe CommandKind = iota + 1
	CmdPublish
	CmdUnsubscribe
	CmdAuthenticate
)

func (k CommandKind) String() string {
	switch k {
	case CmdSubscribe:
		return "sub"
	case CmdPublish:
		return "pub"
	case CmdUnsubscribe:
		return "unsub"
	case CmdAuthenticate:
		return "auth"
	default:
		return "unknown"
	}
}

// Command はデコード済みのクライアントコマンド。
type Command struct {
	Kind      CommandKind
	Channels  []string
	Channel   string
	Recipe    string
	Payload   json.RawMessage
	Tokens    session.Tokens
	UserID    string
	UserToken string
}

// Decode は1フレームを1コマンドへデコードする。
// 判定順は sub, pub+chan, unsub, auth+token。
func Decode(frame []byte) (*Command, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(frame, &fields); err != nil {
		return nil, apperr.NewFrameError(len(frame), "not a json object")
	}
	if fields == nil {
		return nil, apperr.NewFrameError(len(frame), "null frame")
	}

	if raw, ok := fields[model.KeySub]; ok {
		channels, err := decodeChannels(raw)
		if err != nil {
			return nil, apperr.NewFrameError(len(frame), "sub must be a string")
		}
		recipe, _ := optionalString(fields[model.KeyAgg])
		tokens, err := decodeTokens(fields[model.KeyAuthTok])
		if err != nil {
			return nil, apperr.NewFrameError(len(frame), err.Error())
		}
		return &Command{Kind: CmdSubscribe, Channels: channels, Recipe: recipe, Tokens: tokens}, nil
	}

	rawPub, hasPub := fields[model.KeyPub]
	rawChan, hasChan := fields[model.KeyChan]
	if hasPub && hasChan {
		var channel string
		if err := json.Unmarshal(rawChan, &channel); err != nil {
			return nil, apperr.NewFrameError(len(frame), "chan must be a string")
		}
		tokens, err := decodeTokens(fields[model.KeyAuthTok])
		if err != nil {
			return nil, apperr.NewFrameError(len(frame), err.Error())
		}
		return &Command{Kind: CmdPublish, Channel: channel, Payload: rawPub, Tokens: tokens}, nil
	}

	if raw, ok := fields[model.KeyUnsub]; ok {
		channels, err := decodeChannels(raw)
		if err != nil {
			return nil, apperr.NewFrameError(len(frame), "unsub must be a string")
		}
		tokens, err := decodeTokens(fields[model.KeyAuthTok])
		if err != nil {
			return nil, apperr.NewFrameError(len(frame), err.Error())
		}
		return &Command{Kind: CmdUnsubscribe, Channels: channels, Tokens: tokens}, nil
	}

	rawAuth, hasAuth := fields[model.KeyAuth]
	rawToken, hasToken := fields[model.KeyToken]
	if hasAuth && hasToken {
		userID, ok1 := scalarString(rawAuth)
		token, ok2 := scalarString(rawToken)
		if !ok1 || !ok2 {
			return nil, apperr.NewFrameError(len(frame), "auth and token must be scalars")
		}
		return &Command{Kind: CmdAuthenticate, UserID: userID, UserToken: token}, nil
	}

	return nil, apperr.ErrUnknownCommand
}

// decodeChannels はカンマ区切りのチャネル名を分割する。空要素は除く。
func decodeChannels(raw json.RawMessage) ([]string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	var out []string
	for _, ch := range strings.Split(s, model.ChannelSeparator) {
		if ch = strings.TrimSpace(ch); ch != "" {
			out = append(out, ch)
		}
	}
	return out, nil
}

// decodeTokens は "a" を文字列またはチャネル→トークンのオブジェクトとして解釈する。
func decodeTokens(raw json.RawMessage) (session.Tokens, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return session.Tokens{}, nil
	}
	if raw[0] == '{' {
		var per map[string]string
		if err := json.Unmarshal(raw, &per); err != nil {
			return session.Tokens{}, apperr.ErrMalformedFrame
		}
		return session.Tokens{PerChannel: per}, nil
	}
	s, ok := scalarString(raw)
	if !ok {
		return session.Tokens{}, apperr.ErrMalformedFrame
	}
	return session.SingleToken(s), nil
}

func optionalString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// scalarString は文字列または数値を文字列として返す。
func scalarString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

// Target はコマンドの実行先。session.Sessionが実装する。
type Target interface {
	Authenticate(userID, token string)
	Subscribe(channels []string, recipe string, tokens session.Tokens)
	Unsubscribe(channels []string, tokens session.Tokens)
	Publish(channel string, payload json.RawMessage, tokens session.Tokens)
}

// Dispatch はコマンドを実行先へ渡す。
func Dispatch(cmd *Command, t Target) {
	switch cmd.Kind {
	case CmdSubscribe:
		t.Subscribe(cmd.Channels, cmd.Recipe, cmd.Tokens)
	case CmdPublish:
		t.Publish(cmd.Channel, cmd.Payload, cmd.Tokens)
	case CmdUnsubscribe:
		t.Unsubscribe(cmd.Channels, cmd.Tokens)
	case CmdAuthenticate:
		t.Authenticate(cmd.UserID, cmd.UserToken)
	}
}
