// Package logging はログ関連のユーティリティを提供する。
package logging

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	maskFill       = "****"
	opaqueKeep     = 4
	opaqueMinRunes = 12
)

// MaskToken はユーザートークンや許可トークンをマスキングする。
// JWT形式（3セグメント）はヘッダのみ残す。例: eyJhbGciOi.****.****
// それ以外は先頭4文字と長さのみ残す。例: 0123456789abcdef → 0123****(16)
// 12文字未満は長さのみ残す。enabled=false の場合はそのまま返す。
func MaskToken(token string, enabled bool) string {
	if !enabled || token == "" {
		return token
	}
	if header, ok := jwtHeader(token); ok {
		return header + "." + maskFill + "." + maskFill
	}
	n := utf8.RuneCountInString(token)
	if n < opaqueMinRunes {
		return maskFill + "(" + strconv.Itoa(n) + ")"
	}
	return string([]rune(token)[:opaqueKeep]) + maskFill + "(" + strconv.Itoa(n) + ")"
}

func jwtHeader(token string) (string, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", false
	}
	for _, p := range parts {
		if p == "" {
			return "", false
		}
	}
	return parts[0], true
}

// Masker はマスキング設定を保持する構造体。
type Masker struct {
	enabled bool
}

// NewMasker は新しいMaskerを生成する。
func NewMasker(enabled bool) *Masker {
	return &Masker{enabled: enabled}
}

// Token はトークンをマスキングする。空トークンは "(none)" と表示する。
func (m *Masker) Token(token string) string {
	if token == "" {
		return "(none)"
	}
	return MaskToken(token, m.enabled)
}
