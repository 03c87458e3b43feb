package store

import "strings"

// Namespace はストア境界で付与するプレフィックス。
// 空文字の場合はプレフィックスを付与しない。
type Namespace string

// Apply はチャネル名またはキーに名前空間を付与する。
func (n Namespace) Apply(name string) string {
	if n == "" {
		return name
	}
	return string(n) + KeySeparator + name
}

// Strip は受信したチャネル名から名前空間を取り除く。
// 名前空間に属さない場合はfalseを返す。
func (n Namespace) Strip(name string) (string, bool) {
	if n == "" {
		return name, true
	}
	rest, ok := strings.CutPrefix(name, string(n)+KeySeparator)
	return rest, ok
}

// Key は要素を区切り文字で連結し、名前空間を付与する。
func (n Namespace) Key(parts ...string) string {
	return n.Apply(strings.Join(parts, KeySeparator))
}
