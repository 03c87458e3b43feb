// Package valkey はValkeyクライアントの共通機能を提供する。
package valkey

import (
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options はValkeyクライアントの接続オプション。
type Options struct {
	Addr           string        // 接続先アドレス（host:port形式）
	Username       string        // ACLユーザー名
	Password       string        // 認証パスワード
	DB             int           // データベース番号
	ConnectTimeout time.Duration // 接続タイムアウト
	ReadTimeout    time.Duration // 読み取りタイムアウト
	WriteTimeout   time.Duration // 書き込みタイムアウト
	PoolSize       int           // コネクションプールサイズ
	MinIdleConns   int           // 最小アイドルコネクション数
	TLSConfig      *tls.Config   // rediss:// の場合のみ設定される
}

// DefaultOptions はデフォルトのOptionsを返す。
// タイムアウト: 接続3秒、読み取り2秒、書き込み2秒
// プール: サイズ10、最小アイドル2
func DefaultOptions() *Options {
	return &Options{
		Addr:           "localhost:6379",
		Password:       "",
		DB:             0,
		ConnectTimeout: 3 * time.Second,
		ReadTimeout:    2 * time.Second,
		WriteTimeout:   2 * time.Second,
		PoolSize:       10,
		MinIdleConns:   2,
	}
}

// ParseURI は redis://[user:pass@]host:port/db 形式のURIからOptionsを生成する。
// valkey:// と valkeys:// はそれぞれ redis:// と rediss:// として扱う。
// タイムアウトとプール設定はDefaultOptionsの値を引き継ぐ。
func ParseURI(uri string) (*Options, error) {
	normalized := uri
	for from, to := range schemeAliases {
		if strings.HasPrefix(uri, from) {
			normalized = to + strings.TrimPrefix(uri, from)
			break
		}
	}

	parsed, err := redis.ParseURL(normalized)
	if err != nil {
		// URIにはパスワードが含まれ得るため、エラーには含めない
		return nil, fmt.Errorf("invalid store URI: %w", err)
	}
	opts := DefaultOptions()
	opts.Addr = parsed.Addr
	opts.Username = parsed.Username
	opts.Password = parsed.Password
	opts.DB = parsed.DB
	opts.TLSConfig = parsed.TLSConfig
	return opts, nil
}

var schemeAliases = map[string]string{
	"valkey://":  "redis://",
	"valkeys://": "rediss://",
}

// String はパスワードを除いた接続先をURI形式で返す。ログ出力用。
func (o *Options) String() string {
	scheme := "redis"
	if o.TLSConfig != nil {
		scheme = "rediss"
	}
	user := ""
	if o.Username != "" {
		user = o.Username + "@"
	}
	return fmt.Sprintf("%s://%s%s/%d", scheme, user, o.Addr, o.DB)
}

// WithTimeouts はタイムアウトを設定する。
func (o *Options) WithTimeouts(connect, read, write time.Duration) *Options {
	o.ConnectTimeout = connect
	o.ReadTimeout = read
	o.WriteTimeout = write
	return o
}

// WithPool はプール設定を変更する。
func (o *Options) WithPool(poolSize, minIdle int) *Options {
	o.PoolSize = poolSize
	o.MinIdleConns = minIdle
	return o
}
