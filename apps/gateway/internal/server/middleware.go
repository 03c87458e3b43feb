package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/oyaguma3/iris-gateway/pkg/httputil"
	"github.com/oyaguma3/iris-gateway/pkg/logging"
)

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware はX-Request-IDヘッダからリクエストIDを取得する。無ければ採番する。
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(httputil.RequestIDKey, requestID)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggingMiddleware はリクエストログを出力する。
// WebSocketの場合は接続終了時に出力される。
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		slog.Info("リクエスト完了",
			logging.WithRequestID(c.GetString(httputil.RequestIDKey)),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			logging.WithHTTPStatus(c.Writer.Status()),
			logging.WithLatency(time.Since(start)),
		)
	}
}

// RecoveryMiddleware はパニックからの復旧を行う。
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("パニックから復旧",
					logging.WithEventID("HTTP_PANIC"),
					logging.WithRequestID(c.GetString(httputil.RequestIDKey)),
					"error", err,
				)
				httputil.AbortWithError(c, httputil.NewProblemDetail(
					http.StatusInternalServerError,
					"an unexpected error occurred",
				))
			}
		}()
		c.Next()
	}
}
