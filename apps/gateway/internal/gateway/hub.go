package gateway

import (
	"sync"

	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/session"
)

// Hub は稼働中のセッションを保持する。
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
}

// NewHub は新しいHubを生成する。
func NewHub() *Hub {
	return &Hub{sessions: make(map[string]*session.Session)}
}

// Register はセッションを登録する。
func (h *Hub) Register(s *session.Session) {
	h.mu.Lock()
	h.sessions[s.ID()] = s
	h.mu.Unlock()
}

// Unregister はセッションを登録解除する。
func (h *Hub) Unregister(s *session.Session) {
	h.mu.Lock()
	delete(h.sessions, s.ID())
	h.mu.Unlock()
}

// Count は登録中のセッション数を返す。
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// CloseAll は全セッションを閉じる。
func (h *Hub) CloseAll() {
	h.mu.RLock()
	all := make([]*session.Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		all = append(all, s)
	}
	h.mu.RUnlock()

	for _, s := range all {
		s.Close()
	}
}
