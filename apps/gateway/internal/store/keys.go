package store

// Valkeyキー名
const (
	KeySeparator     = ":"            // 名前空間とキー要素の区切り
	KeyTokenSentinel = "__iris_token" // プロセス秘密鍵の書き込み先
)
