package logger

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGinLogger_AssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, zerolog.InfoLevel)
	defer Init("info")

	router := gin.New()
	router.Use(GinLogger())
	router.GET("/ping", func(c *gin.Context) {
		c.String(200, "pong")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ping", nil)
	router.ServeHTTP(w, req)

	id := w.Header().Get(RequestIDHeader)
	if id == "" {
		t.Fatal("expected a generated request id header")
	}
	if !strings.Contains(buf.String(), id) {
		t.Errorf("log output should contain request id %q, got %s", id, buf.String())
	}
}

func TestGinLogger_KeepsIncomingRequestID(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, zerolog.InfoLevel)
	defer Init("info")

	router := gin.New()
	router.Use(GinLogger())
	router.GET("/ping", func(c *gin.Context) {
		c.String(200, "pong")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	router.ServeHTTP(w, req)

	if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, expected %q", got, "abc-123")
	}
}

func TestGinRecovery_ReturnsJSON500(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, zerolog.InfoLevel)
	defer Init("info")

	router := gin.New()
	router.Use(GinRecovery())
	router.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/boom", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Error("panic should be logged")
	}
}

func TestModule_TagsField(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, zerolog.InfoLevel)
	defer Init("info")

	l := Module("budget")
	l.Info().Msg("hello")

	if !strings.Contains(buf.String(), `"module":"budget"`) {
		t.Errorf("expected module field, got %s", buf.String())
	}
}
