package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/auth"
	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/config"
	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/gateway"
	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/store"
	"github.com/oyaguma3/iris-gateway/pkg/httputil"
	"github.com/oyaguma3/iris-gateway/pkg/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubPinger struct {
	err error
}

func (p *stubPinger) Ping(context.Context) error { return p.err }

func testConfig() *config.Config {
	return &config.Config{
		ListenHost: "127.0.0.1",
		ListenPort: 0,
		WSPath:     "/",
		GinMode:    gin.TestMode,
	}
}

func TestHandleHealth(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantStatus int
	}{
		{"store reachable", nil, http.StatusOK},
		{"store unreachable", errors.New("connection refused"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(gateway.New(nil, auth.NewNone()), &stubPinger{err: tt.pingErr})
			srv := New(testConfig(), h)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, HealthPath, nil)
			srv.Handler().ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				var body healthResponse
				if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
					t.Fatalf("unmarshal failed: %v", err)
				}
				if body.Status != "ok" {
					t.Errorf("status = %q, want ok", body.Status)
				}
			} else if ct := w.Header().Get("Content-Type"); ct != httputil.ContentType {
				t.Errorf("Content-Type = %q, want %q", ct, httputil.ContentType)
			}
		})
	}
}

func TestHandleWebSocketRequiresUpgrade(t *testing.T) {
	srv := New(testConfig(), NewHandler(gateway.New(nil, auth.NewNone()), &stubPinger{}))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusUpgradeRequired {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUpgradeRequired)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	srv := New(testConfig(), NewHandler(gateway.New(nil, auth.NewNone()), &stubPinger{}))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, HealthPath, nil))
	if w.Header().Get(requestIDHeader) == "" {
		t.Error("request id should be generated")
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, HealthPath, nil)
	req.Header.Set(requestIDHeader, "req-1")
	srv.Handler().ServeHTTP(w, req)
	if got := w.Header().Get(requestIDHeader); got != "req-1" {
		t.Errorf("%s = %q, want req-1", requestIDHeader, got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestIDMiddleware(), RecoveryMiddleware())
	engine.GET("/panic", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestWebSocketRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	vc, err := store.NewValkeyClient(&config.Config{StoreURI: "redis://" + mr.Addr() + "/0"})
	if err != nil {
		t.Fatalf("NewValkeyClient failed: %v", err)
	}
	defer vc.Close()

	bridge := store.NewBridge(vc, store.Namespace("srv"))
	defer bridge.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = bridge.Run(ctx) }()

	gw := gateway.New(bridge, auth.NewNone())
	defer gw.Shutdown()
	srv := New(testConfig(), NewHandler(gw, vc))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/", nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer ws.Close()

	if err := ws.WriteJSON(map[string]any{"sub": "ticker"}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for bridge.Subscribers("ticker") == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	mr.Publish("srv:ticker", `{"price":10}`)

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	// None方式では最初の購読でグローバル認証済みとなり、その通知が配信より先に届く
	var ack model.ServerFrame
	if err := ws.ReadJSON(&ack); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if !ack.Auth {
		t.Fatalf("first frame = %+v, want {\"auth\":true}", ack)
	}

	var f model.ServerFrame
	if err := ws.ReadJSON(&f); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if f.Chan != "ticker" || string(f.Msg) != `{"price":10}` {
		t.Errorf("frame = %+v, want ticker/{\"price\":10}", f)
	}
}
