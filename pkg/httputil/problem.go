// Package httputil はHTTP関連のユーティリティを提供する。
package httputil

import "net/http"

// ContentType はRFC 7807で定義されたContent-Typeヘッダー値。
const ContentType = "application/problem+json"

// ProblemDetail はRFC 7807準拠のエラーレスポンス構造体。
type ProblemDetail struct {
	Type   string `json:"type"`             // エラータイプのURI
	Title  string `json:"title"`            // エラータイトル
	Status int    `json:"status"`           // HTTPステータスコード
	Detail string `json:"detail,omitempty"` // 詳細説明

	Instance  string `json:"instance,omitempty"`   // 発生したリクエストのパス
	RequestID string `json:"request_id,omitempty"` // 拡張メンバー: X-Request-ID
}

// NewProblemDetail は新しいProblemDetailを生成する。
// TitleはステータスコードのHTTP標準テキストを使用する。
func NewProblemDetail(status int, detail string) *ProblemDetail {
	return &ProblemDetail{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
}

// UpgradeRequired は426 Upgrade Requiredのエラーレスポンスを生成する。
func UpgradeRequired(detail string) *ProblemDetail {
	return NewProblemDetail(http.StatusUpgradeRequired, detail)
}

// ServiceUnavailable は503 Service Unavailableのエラーレスポンスを生成する。
func ServiceUnavailable(detail string) *ProblemDetail {
	return NewProblemDetail(http.StatusServiceUnavailable, detail)
}
