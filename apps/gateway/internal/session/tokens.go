package session

// Tokens はクライアントがコマンドに付与した "a" の値。
// 全チャネル共通の文字列、またはチャネルごとのトークンを保持する。
type Tokens struct {
	All        string
	PerChannel map[string]string
}

// SingleToken は全チャネル共通のトークンを返す。
func SingleToken(token string) Tokens {
	return Tokens{All: token}
}

// For はチャネルに対するトークンを返す。
func (t Tokens) For(channel string) string {
	if tok, ok := t.PerChannel[channel]; ok {
		return tok
	}
	return t.All
}
