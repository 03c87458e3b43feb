package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// SecretSize はプロセス秘密鍵のバイト数。
const SecretSize = 32

// GenerateSecret は暗号論的乱数からプロセス秘密鍵を生成する。
func GenerateSecret() (string, error) {
	buf := make([]byte, SecretSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// SharedSecret はプロセス秘密鍵による署名トークンで判定する認可方式。
// トークンは (channel, session id, action) に対するHS256署名で、
// 有効期限を持たない。秘密鍵の再生成で全トークンが無効になる。
type SharedSecret struct {
	secret []byte
}

// NewSharedSecret は新しいSharedSecretを生成する。
func NewSharedSecret(secret string) *SharedSecret {
	return &SharedSecret{secret: []byte(secret)}
}

func (*SharedSecret) Kind() Kind { return KindSharedSecret }

func (*SharedSecret) Traits() Traits {
	return Traits{Stateless: true, AnnouncesID: true}
}

// Sign はチャネル・セッション・操作に対する許可トークンを生成する。
// アプリケーションサーバーは同じ秘密鍵で同じトークンを生成できる。
func (s *SharedSecret) Sign(channel, sessionID string, action Action) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"chan": channel,
		"sid":  sessionID,
		"act":  string(action),
	})
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign grant token: %w", err)
	}
	return signed, nil
}

// Verify はトークンが再計算したものと一致するかを定数時間で比較する。
func (s *SharedSecret) Verify(channel, sessionID string, action Action, token string) bool {
	if token == "" {
		return false
	}
	want, err := s.Sign(channel, sessionID, action)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(token)) == 1
}

// Authorize はチャネルごとにトークンを検証する。グローバル要求は常に許可する。
func (s *SharedSecret) Authorize(_ context.Context, req Request) (Decision, error) {
	d := make(Decision)
	if len(req.Channels) == 0 {
		d[GlobalKey] = FullGrant
		return d, nil
	}
	for _, ch := range req.Channels {
		if s.Verify(ch, req.SessionID, req.Action, req.Token) {
			var g Grant
			if req.Action == ActionPub {
				g.Pub = true
			} else {
				g.Sub = true
			}
			d[ch] = g
		}
	}
	return d, nil
}
