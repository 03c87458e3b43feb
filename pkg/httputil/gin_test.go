package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	// テスト時はGinをテストモードに設定
	gin.SetMode(gin.TestMode)
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	WriteError(c, UpgradeRequired("websocket upgrade required"))

	if w.Code != http.StatusUpgradeRequired {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusUpgradeRequired)
	}

	contentType := w.Header().Get("Content-Type")
	if contentType != ContentType {
		t.Errorf("Content-Type = %q, want %q", contentType, ContentType)
	}

	var parsed ProblemDetail
	if err := json.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if parsed.Detail != "websocket upgrade required" {
		t.Errorf("Response Detail = %q, want %q", parsed.Detail, "websocket upgrade required")
	}
}

func TestAbortWithError(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	AbortWithError(c, NewProblemDetail(http.StatusForbidden, "origin not allowed"))

	if w.Code != http.StatusForbidden {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusForbidden)
	}
	if !c.IsAborted() {
		t.Error("Context should be aborted")
	}
	if ct := w.Header().Get("Content-Type"); ct != ContentType {
		t.Errorf("Content-Type = %q, want %q", ct, ContentType)
	}
}

func TestWriteErrorInHandler(t *testing.T) {
	router := gin.New()
	router.GET("/healthz", func(c *gin.Context) {
		WriteError(c, ServiceUnavailable("valkey unavailable"))
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/healthz", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}

	var parsed ProblemDetail
	if err := json.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if parsed.Title != "Service Unavailable" {
		t.Errorf("Title = %q, want %q", parsed.Title, "Service Unavailable")
	}
	if parsed.Instance != "/healthz" {
		t.Errorf("Instance = %q, want %q", parsed.Instance, "/healthz")
	}
	if parsed.RequestID != "" {
		t.Errorf("RequestID = %q, want empty", parsed.RequestID)
	}
}

func TestWriteErrorCarriesRequestID(t *testing.T) {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(RequestIDKey, "req-42")
		c.Next()
	})
	router.GET("/", func(c *gin.Context) {
		WriteError(c, UpgradeRequired("websocket upgrade required"))
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	router.ServeHTTP(w, req)

	var parsed ProblemDetail
	if err := json.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if parsed.RequestID != "req-42" {
		t.Errorf("RequestID = %q, want %q", parsed.RequestID, "req-42")
	}
	if parsed.Instance != "/" {
		t.Errorf("Instance = %q, want %q", parsed.Instance, "/")
	}
}

func TestAbortWithErrorInMiddleware(t *testing.T) {
	router := gin.New()

	router.Use(func(c *gin.Context) {
		if c.GetHeader("Origin") == "http://evil.example" {
			AbortWithError(c, NewProblemDetail(http.StatusForbidden, "origin not allowed"))
			return
		}
		c.Next()
	})

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	t.Run("rejected origin", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("Origin", "http://evil.example")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusForbidden {
			t.Errorf("Status code = %d, want %d", w.Code, http.StatusForbidden)
		}
	})

	t.Run("allowed", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/healthz", nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
		}
	})
}
