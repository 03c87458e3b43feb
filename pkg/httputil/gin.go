package httputil

import "github.com/gin-gonic/gin"

// RequestIDKey はリクエストIDを格納するgin.Contextのキー。
const RequestIDKey = "request_id"

// WriteError はProblemDetailをGinレスポンスとして書き込む。
func WriteError(c *gin.Context, problem *ProblemDetail) {
	bind(c, problem)
	c.Header("Content-Type", ContentType)
	c.JSON(problem.Status, problem)
}

// AbortWithError はProblemDetailを書き込み、後続のハンドラを中断する。
func AbortWithError(c *gin.Context, problem *ProblemDetail) {
	bind(c, problem)
	c.Header("Content-Type", ContentType)
	c.AbortWithStatusJSON(problem.Status, problem)
}

// bind は未設定のinstanceとrequest_idをリクエストから補う。
func bind(c *gin.Context, problem *ProblemDetail) {
	if problem.Instance == "" && c.Request != nil {
		problem.Instance = c.Request.URL.Path
	}
	if problem.RequestID == "" {
		problem.RequestID = c.GetString(RequestIDKey)
	}
}
