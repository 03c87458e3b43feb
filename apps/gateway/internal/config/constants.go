package config

import "time"

// Valkey接続設定
const (
	ValkeyConnectTimeout = 3 * time.Second
	ValkeyCommandTimeout = 2 * time.Second
	ValkeyPoolSize       = 20
	ValkeyMinIdleConns   = 2
)

// 認可エンドポイント接続設定
const (
	AuthRequestTimeout = 5 * time.Second
)

// Circuit Breaker設定
const (
	CBName             = "auth-endpoint"
	CBMaxRequests      = 3
	CBInterval         = 10 * time.Second
	CBTimeout          = 30 * time.Second
	CBFailureThreshold = 5
)

// 認可キャッシュ
const (
	AuthCacheTTL = 30 * time.Minute
)

// WebSocket設定
const (
	WSWriteWait      = 10 * time.Second
	WSPongWait       = 60 * time.Second
	WSPingPeriod     = (WSPongWait * 9) / 10
	WSMaxMessageSize = 64 * 1024
	WSSendQueueSize  = 256
)

// 共有購読接続の再確立間隔
const (
	BridgeRetryInitial = 500 * time.Millisecond
	BridgeRetryMax     = 16 * time.Second
)

// サーバーシャットダウン設定
const (
	ShutdownTimeout = 10 * time.Second
)
