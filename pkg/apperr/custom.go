package apperr

import "fmt"

// ValidationError はバリデーションエラーを表す。
type ValidationError struct {
	Field   string // エラーが発生したフィールド名
	Message string // エラーメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field=%s, message=%s", e.Field, e.Message)
}

// NewValidationError はValidationErrorを生成する。
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// AuthorityError は認可エンドポイントとの通信エラーを表す。
type AuthorityError struct {
	URL        string // 認可エンドポイントURL
	StatusCode int    // HTTPステータスコード
	Cause      error  // 根本原因
}

// Error はerrorインターフェースを実装する。
func (e *AuthorityError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("authority error: url=%s, statusCode=%d, cause=%v",
			e.URL, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("authority error: url=%s, statusCode=%d",
		e.URL, e.StatusCode)
}

// Unwrap は根本原因を返す。
func (e *AuthorityError) Unwrap() error {
	return e.Cause
}

// Is はErrAuthorityとの比較でtrueを返す。
func (e *AuthorityError) Is(target error) bool {
	return target == ErrAuthority
}

// NewAuthorityError はAuthorityErrorを生成する。
func NewAuthorityError(url string, statusCode int, cause error) *AuthorityError {
	return &AuthorityError{
		URL:        url,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

// ValkeyError はValkeyとの操作エラーを表す。
type ValkeyError struct {
	Operation string // 操作名（GET, SET, PUBLISH等）
	Key       string // 操作対象のキーまたはチャンネル
	Cause     error  // 根本原因
}

// Error はerrorインターフェースを実装する。
func (e *ValkeyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("valkey error: operation=%s, key=%s, cause=%v",
			e.Operation, e.Key, e.Cause)
	}
	return fmt.Sprintf("valkey error: operation=%s, key=%s", e.Operation, e.Key)
}

// Unwrap は根本原因を返す。
func (e *ValkeyError) Unwrap() error {
	return e.Cause
}

// NewValkeyError はValkeyErrorを生成する。
func NewValkeyError(operation, key string, cause error) *ValkeyError {
	return &ValkeyError{
		Operation: operation,
		Key:       key,
		Cause:     cause,
	}
}

// FrameError は受信フレームのデコードエラーを表す。
type FrameError struct {
	Size   int    // フレームのバイト数
	Reason string // エラーの理由
}

// Error はerrorインターフェースを実装する。
func (e *FrameError) Error() string {
	return fmt.Sprintf("frame error: size=%d, reason=%s", e.Size, e.Reason)
}

// Unwrap はErrMalformedFrameを返す。
func (e *FrameError) Unwrap() error {
	return ErrMalformedFrame
}

// NewFrameError はFrameErrorを生成する。
func NewFrameError(size int, reason string) *FrameError {
	return &FrameError{
		Size:   size,
		Reason: reason,
	}
}
