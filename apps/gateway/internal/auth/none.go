package auth

import "context"

// None は常に許可する認可方式。
type None struct{}

// NewNone は新しいNoneを生成する。
func NewNone() *None { return &None{} }

func (*None) Kind() Kind { return KindNone }

func (*None) Traits() Traits {
	return Traits{Global: true, Handshake: true}
}

// Authorize は要求された全キーを許可する。
func (*None) Authorize(_ context.Context, req Request) (Decision, error) {
	d := make(Decision, len(req.Keys()))
	for _, k := range req.Keys() {
		d[k] = FullGrant
	}
	return d, nil
}
