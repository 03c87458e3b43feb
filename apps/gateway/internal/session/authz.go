package session

import (
	"errors"
	"log/slog"

	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/auth"
	"github.com/oyaguma3/iris-gateway/pkg/apperr"
	"github.com/oyaguma3/iris-gateway/pkg/logging"
)

// authorize はチャネルごとに認可を判定し、許可されたチャネルについてonGrantを呼ぶ。
// 拒否は何も通知しない。
func (s *Session) authorize(channels []string, action auth.Action, tokens Tokens, onGrant func(ch string)) {
	if s.closed {
		return
	}
	if s.traits.RequiresIdentity && !s.hasIdentity {
		slog.Debug("authenticate前の操作を破棄",
			"event_id", "AUTH_NO_IDENTITY",
			"session_id", s.id,
			"action", string(action),
		)
		return
	}

	switch {
	case s.traits.Stateless:
		s.authorizeStateless(channels, action, tokens, onGrant)
	case s.traits.Global:
		s.authorizeGlobal(action, func() {
			for _, ch := range channels {
				onGrant(ch)
			}
		}, func() {})
	default:
		s.authorizeChannels(channels, action, onGrant)
	}
}

// authorizeStateless はトークンを要求ごとに検証する。結果は保持しない。
func (s *Session) authorizeStateless(channels []string, action auth.Action, tokens Tokens, onGrant func(ch string)) {
	for _, ch := range channels {
		d, err := s.mech.Authorize(s.ctx, auth.Request{
			SessionID: s.id,
			Channels:  []string{ch},
			Action:    action,
			Token:     tokens.For(ch),
		})
		if err != nil {
			s.fail(authFailEvent(err), err)
			return
		}
		if g, ok := d.Lookup(ch); ok && g.Allows(action) {
			onGrant(ch)
			continue
		}
		s.logDenied(ch, action)
	}
}

// authorizeGlobal はグローバル状態で判定する。未判定なら判定を開始し、継続処理を待機させる。
func (s *Session) authorizeGlobal(action auth.Action, onGrant, onDeny func()) {
	switch s.global {
	case GlobalAuthenticated:
		onGrant()
		return
	case GlobalDenied:
		onDeny()
		return
	}

	w := waiter{action: action, onGrant: onGrant, onDeny: onDeny}
	if q, ok := s.pending[auth.GlobalKey]; ok {
		q.add(w)
		return
	}
	q := &pendingQueue{}
	q.add(w)
	s.pending[auth.GlobalKey] = q
	s.dispatch(auth.Request{
		SessionID: s.id,
		UserID:    s.userID,
		UserToken: s.userToken,
		Action:    action,
	}, []string{auth.GlobalKey})
}

// authorizeChannels はチャネル単位の状態で判定する。
// 判定中のチャネルは待機列に加え、未判定のチャネルのみまとめて問い合わせる。
func (s *Session) authorizeChannels(channels []string, action auth.Action, onGrant func(ch string)) {
	var batch []string
	for _, ch := range channels {
		ca, ok := s.channels[ch]
		if !ok {
			ca = &channelAuth{}
			s.channels[ch] = ca
		}

		switch ca.status {
		case Authorized:
			if ca.grant.Allows(action) {
				onGrant(ch)
			} else {
				s.logDenied(ch, action)
			}
			continue
		case Denied:
			continue
		}

		w := waiter{action: action, onGrant: func() { onGrant(ch) }, onDeny: func() {}}
		q, ok := s.pending[ch]
		if !ok {
			q = &pendingQueue{}
			s.pending[ch] = q
		}
		q.add(w)
		if ca.status == Unchecked {
			ca.status = Pending
			batch = append(batch, ch)
		}
	}
	if len(batch) == 0 {
		return
	}
	s.dispatch(auth.Request{
		SessionID: s.id,
		UserID:    s.userID,
		UserToken: s.userToken,
		Channels:  batch,
		Action:    action,
	}, batch)
}

// dispatch は認可方式に判定を依頼する。非同期方式はループ外で実行し、結果をループへ戻す。
func (s *Session) dispatch(req auth.Request, keys []string) {
	epoch := s.epoch
	if !s.traits.Async {
		d, err := s.mech.Authorize(s.ctx, req)
		s.resolve(epoch, keys, d, err)
		return
	}

	ctx := s.ctx
	s.exec.Go(func() {
		d, err := s.mech.Authorize(ctx, req)
		s.exec.Post(func() { s.resolve(epoch, keys, d, err) })
	})
}

// resolve は判定結果を状態へ反映し、待機中の継続処理を先着順に実行する。
func (s *Session) resolve(epoch uint64, keys []string, d auth.Decision, err error) {
	if s.closed || epoch != s.epoch {
		return
	}
	if err != nil {
		s.fail(authFailEvent(err), err)
		return
	}

	for _, key := range keys {
		q := s.pending[key]
		delete(s.pending, key)

		g, granted := d.Lookup(key)
		if key == auth.GlobalKey {
			if granted {
				s.setGlobalAuthenticated()
			} else {
				s.global = GlobalDenied
				slog.Warn("ユーザー認証失敗",
					s.fields.AuthLogFields(s.id, "AUTH_DENIED", s.userID, s.userToken)...,
				)
			}
		} else {
			ca := s.channels[key]
			if ca == nil {
				ca = &channelAuth{}
				s.channels[key] = ca
			}
			if granted {
				ca.status = Authorized
				ca.grant = g
			} else {
				ca.status = Denied
				s.logDenied(key, "")
			}
		}

		if q == nil {
			continue
		}
		for _, w := range q.waiters {
			if s.closed {
				return
			}
			if granted && g.Allows(w.action) {
				w.onGrant()
			} else {
				w.onDeny()
			}
		}
	}
}

// setGlobalAuthenticated はグローバル認証済みへ遷移し、遷移時に一度だけ通知する。
func (s *Session) setGlobalAuthenticated() {
	if s.global == GlobalAuthenticated {
		return
	}
	s.global = GlobalAuthenticated
	s.send(authOK)
	slog.Info("ユーザー認証成功",
		"event_id", "AUTH_OK",
		"session_id", s.id,
		"user_id", s.userID,
	)
}

func (s *Session) logDenied(channel string, action auth.Action) {
	slog.Info("認可拒否",
		logging.WithEventID("AUTH_DENIED"),
		logging.WithSessionID(s.id),
		slog.String(logging.FieldUserID, s.userID),
		logging.WithChannel(channel),
		logging.WithAction(string(action)),
	)
}

// authFailEvent は認可失敗のイベントIDを返す。
func authFailEvent(err error) string {
	if errors.Is(err, apperr.ErrAuthority) {
		return "AUTH_AUTHORITY_ERR"
	}
	return "AUTH_INFRA_ERR"
}
