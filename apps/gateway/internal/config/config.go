// Package config は環境変数から設定を読み込む。
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/oyaguma3/iris-gateway/pkg/apperr"
	"github.com/oyaguma3/iris-gateway/pkg/valkey"
)

// AuthMechanism は認可方式を表す。
type AuthMechanism string

const (
	// AuthNone は認可なし
	AuthNone AuthMechanism = "none"
	// AuthSharedSecret はプロセス秘密鍵による署名トークン方式
	AuthSharedSecret AuthMechanism = "shared-secret"
	// AuthEndpoint は外部HTTPエンドポイント方式
	AuthEndpoint AuthMechanism = "endpoint"
	// AuthTable はValkeyテーブル方式
	AuthTable AuthMechanism = "table"
)

// Config はゲートウェイの設定を保持する。
// 起動時に一度だけ生成し、以後は変更しない。
type Config struct {
	// Valkey接続設定
	StoreURI  string `envconfig:"IRIS_STORE_URI" default:"redis://127.0.0.1:6379/0"`
	Namespace string `envconfig:"IRIS_NAMESPACE" default:"development"`

	// サーバー設定
	ListenHost string `envconfig:"LISTEN_HOST" default:"0.0.0.0"`
	ListenPort int    `envconfig:"LISTEN_PORT" default:"8080"`
	WSPath     string `envconfig:"WS_PATH" default:"/"`
	GinMode    string `envconfig:"GIN_MODE" default:"release"`

	// ログ設定
	LogLevel     string `envconfig:"LOG_LEVEL" default:"INFO"`
	LogMaskToken bool   `envconfig:"LOG_MASK_TOKEN" default:"true"`

	// 集約ウィンドウ（秒）
	AggregationTime float64 `envconfig:"AGGREGATION_TIME" default:"1.5"`

	// 認可設定
	AuthMechanism   AuthMechanism `envconfig:"AUTH_MECHANISM" default:"none"`
	AuthEndpointURL string        `envconfig:"AUTH_ENDPOINT"`
	AuthTableKey    string        `envconfig:"AUTH_TABLE_KEY" default:"iris_auth"`
	AuthCachePrefix string        `envconfig:"AUTH_CACHE_PREFIX" default:"iris_auth_cache"`
}

// Load は環境変数から設定を読み込む。
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.AuthMechanism = AuthMechanism(strings.ToLower(strings.TrimSpace(string(cfg.AuthMechanism))))
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// ListenAddr は待ち受けアドレスを "host:port" 形式で返す。
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.ListenHost, strconv.Itoa(c.ListenPort))
}

// AggregationWindow は集約ウィンドウをtime.Durationで返す。
func (c *Config) AggregationWindow() time.Duration {
	return time.Duration(c.AggregationTime * float64(time.Second))
}

// validate は設定値のバリデーションを行う。
func (c *Config) validate() error {
	switch c.AuthMechanism {
	case AuthNone, AuthSharedSecret, AuthTable:
	case AuthEndpoint:
		if !strings.HasPrefix(c.AuthEndpointURL, "http://") && !strings.HasPrefix(c.AuthEndpointURL, "https://") {
			return apperr.NewValidationError("AUTH_ENDPOINT", "must start with http:// or https://")
		}
	default:
		return apperr.NewValidationError("AUTH_MECHANISM", fmt.Sprintf("must be one of none, shared-secret, endpoint, table: %q", c.AuthMechanism))
	}
	if c.AuthMechanism == AuthTable && strings.TrimSpace(c.AuthTableKey) == "" {
		return apperr.NewValidationError("AUTH_TABLE_KEY", "must not be empty")
	}
	if c.AuthMechanism == AuthEndpoint && strings.TrimSpace(c.AuthCachePrefix) == "" {
		return apperr.NewValidationError("AUTH_CACHE_PREFIX", "must not be empty")
	}
	if c.AggregationTime < 0 {
		return apperr.NewValidationError("AGGREGATION_TIME", "must not be negative")
	}
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return apperr.NewValidationError("LISTEN_PORT", fmt.Sprintf("out of range: %d", c.ListenPort))
	}
	if !strings.HasPrefix(c.WSPath, "/") {
		return apperr.NewValidationError("WS_PATH", "must start with /")
	}
	if _, err := valkey.ParseURI(c.StoreURI); err != nil {
		return apperr.NewValidationError("IRIS_STORE_URI", "must be a redis://, rediss://, valkey:// or valkeys:// URI")
	}
	return nil
}
