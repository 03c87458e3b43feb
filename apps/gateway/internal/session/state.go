package session

import "github.com/oyaguma3/iris-gateway/apps/gateway/internal/auth"

// GlobalState はセッション全体の認証状態。
type GlobalState int

const (
	Unauthenticated GlobalState = iota
	GlobalAuthenticated
	GlobalDenied
)

func (g GlobalState) String() string {
	switch g {
	case GlobalAuthenticated:
		return "authenticated"
	case GlobalDenied:
		return "denied"
	default:
		return "unauthenticated"
	}
}

// ChannelStatus はチャネル単位の認可状態。
type ChannelStatus int

const (
	Unchecked ChannelStatus = iota
	Pending
	Authorized
	Denied
)

func (c ChannelStatus) String() string {
	switch c {
	case Pending:
		return "pending"
	case Authorized:
		return "authorized"
	case Denied:
		return "denied"
	default:
		return "unchecked"
	}
}

// channelAuth はチャネルの認可状態と許可内容。
type channelAuth struct {
	status ChannelStatus
	grant  auth.Grant
}

// waiter は認可判定待ちの継続処理。
type waiter struct {
	action  auth.Action
	onGrant func()
	onDeny  func()
}

// pendingQueue はキーごとの判定待ち継続処理。先着順に実行する。
type pendingQueue struct {
	waiters []waiter
}

func (q *pendingQueue) add(w waiter) {
	q.waiters = append(q.waiters, w)
}
