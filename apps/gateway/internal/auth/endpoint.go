package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/config"
	"github.com/oyaguma3/iris-gateway/apps/gateway/internal/store"
	"github.com/oyaguma3/iris-gateway/pkg/apperr"
	"github.com/oyaguma3/iris-gateway/pkg/logging"
	"github.com/oyaguma3/iris-gateway/pkg/model"
	"github.com/sony/gobreaker"
)

// 認可エンドポイントへのフォームパラメータ名
const (
	ParamUserID   = "user_id"
	ParamToken    = "token"
	ParamChannels = "channels"
)

// Endpoint は外部HTTPエンドポイントで判定する認可方式。
// 判定前に認可キャッシュを参照し、キャッシュで確定しないキーのみ問い合わせる。
type Endpoint struct {
	httpClient *resty.Client
	cb         *gobreaker.CircuitBreaker
	url        string
	cache      store.AuthCache
	fields     *logging.CommonFields
}

// NewEndpoint は新しいEndpointを生成する。
func NewEndpoint(url string, cache store.AuthCache, fields *logging.CommonFields) *Endpoint {
	if fields == nil {
		fields = logging.NewCommonFields(nil)
	}
	httpClient := resty.New().
		SetTimeout(config.AuthRequestTimeout)

	cbSettings := gobreaker.Settings{
		Name:        config.CBName,
		MaxRequests: config.CBMaxRequests,
		Interval:    config.CBInterval,
		Timeout:     config.CBTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(config.CBFailureThreshold)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			switch to {
			case gobreaker.StateOpen:
				slog.Warn("circuit breaker opened",
					"event_id", "CB_OPEN",
					"cb_name", name,
				)
			case gobreaker.StateHalfOpen:
				slog.Info("circuit breaker half-open",
					"event_id", "CB_HALF_OPEN",
					"cb_name", name,
				)
			case gobreaker.StateClosed:
				slog.Info("circuit breaker closed",
					"event_id", "CB_CLOSE",
					"cb_name", name,
				)
			}
		},
	}

	return &Endpoint{
		httpClient: httpClient,
		cb:         gobreaker.NewCircuitBreaker(cbSettings),
		url:        url,
		cache:      cache,
		fields:     fields,
	}
}

func (*Endpoint) Kind() Kind { return KindEndpoint }

func (*Endpoint) Traits() Traits {
	return Traits{Async: true, RequiresIdentity: true, Handshake: true}
}

// Authorize はキャッシュ参照、エンドポイント問い合わせ、キャッシュ書き込みの順に判定する。
// 200以外の応答と不正なボディは要求全体の拒否となり、キャッシュには書き込まない。
// 接続エラーとCircuit Breaker Openはエラーとして返す。
func (e *Endpoint) Authorize(ctx context.Context, req Request) (Decision, error) {
	keys := req.Keys()
	cached, err := e.cache.Lookup(ctx, req.UserID, keys)
	if err != nil {
		return nil, err
	}

	d := make(Decision, len(keys))
	var missing []string
	for _, k := range keys {
		if tok, ok := cached[k]; ok && req.UserToken != "" && tok == req.UserToken {
			d[k] = FullGrant
			continue
		}
		missing = append(missing, k)
	}
	if len(missing) == 0 {
		slog.Debug("認可キャッシュヒット",
			"event_id", "AUTH_CACHE_HIT",
			"session_id", req.SessionID,
			"user_id", req.UserID,
		)
		return d, nil
	}

	global := len(req.Channels) == 0
	var channels []string
	if !global {
		channels = missing
	}

	resp, err := e.request(ctx, req.UserID, req.UserToken, channels)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) || errors.Is(err, ErrInvalidResponse) {
			slog.Warn("ユーザー認証失敗",
				append(e.fields.AuthLogFields(req.SessionID, "AUTH_DENIED", req.UserID, req.UserToken),
					"error", err)...,
			)
			return d, nil
		}
		return nil, err
	}

	var toCache []string
	if global {
		d[GlobalKey] = FullGrant
		toCache = append(toCache, GlobalKey)
	} else {
		for _, ch := range missing {
			cg := resp[ch]
			if !cg.HasAny() {
				continue
			}
			g := Grant{Pub: cg.CanPub(), Sub: cg.CanSub()}
			if !g.Pub && !g.Sub {
				continue
			}
			d[ch] = g
			if g == FullGrant {
				toCache = append(toCache, ch)
			}
		}
	}

	if err := e.cache.Store(ctx, req.UserID, req.UserToken, toCache); err != nil {
		return nil, err
	}
	return d, nil
}

// request は認可エンドポイントへPOSTする。
// channelsがnilの場合はグローバル認可の要求となる。
func (e *Endpoint) request(ctx context.Context, userID, token string, channels []string) (model.GrantResponse, error) {
	form := map[string]string{
		ParamUserID: userID,
		ParamToken:  token,
	}
	if channels != nil {
		form[ParamChannels] = strings.Join(channels, model.ChannelSeparator)
	}

	start := time.Now()

	result, err := e.cb.Execute(func() (any, error) {
		resp, err := e.httpClient.R().
			SetContext(ctx).
			SetFormData(form).
			Post(e.url)
		if err != nil {
			return nil, apperr.NewAuthorityError(e.url, 0, err)
		}

		latency := time.Since(start)
		statusCode := resp.StatusCode()

		if statusCode != 200 {
			statusErr := newStatusError(statusCode, resp.Body())
			slog.Warn("認可エンドポイントエラー応答",
				logging.WithEventID("AUTH_ENDPOINT_ERR"),
				logging.WithError(statusErr),
				logging.WithHTTPStatus(statusCode),
				logging.WithLatency(latency),
			)
			if statusErr.tripsBreaker() {
				return nil, statusErr
			}
			return statusErr, nil
		}

		slog.Debug("認可エンドポイント応答",
			logging.WithEventID("AUTH_ENDPOINT_OK"),
			logging.WithLatency(latency),
		)
		return resp.Body(), nil
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrCircuitOpen
		}
		return nil, err
	}

	if statusErr, ok := result.(*StatusError); ok {
		return nil, statusErr
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, ErrInvalidResponse
	}
	if channels == nil {
		return model.GrantResponse{}, nil
	}
	return parseGrantResponse(body)
}

// parseGrantResponse は200応答ボディをGrantResponseに変換する。
func parseGrantResponse(body []byte) (model.GrantResponse, error) {
	var resp model.GrantResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidResponse)
	}
	return resp, nil
}
