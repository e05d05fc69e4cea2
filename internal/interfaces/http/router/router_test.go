package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukaandost/backend/internal/infrastructure/metrics"
	"github.com/dukaandost/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingRouter struct {
	calls []string
}

func (r *recordingRouter) Handle(_ context.Context, from, text string) {
	r.calls = append(r.calls, from+":"+text)
}

func TestRouteGroup_RegisterRoutes(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	group := NewRouteGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	group.POST("", func(c *gin.Context) {
		c.String(http.StatusCreated, "created")
	})
	assert.Equal(t, "test", group.Name())

	r.Register(group).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRouteGroup_Middleware(t *testing.T) {
	engine := gin.New()
	group := NewRouteGroup("guarded", "/guarded").
		Use(func(c *gin.Context) {
			c.AbortWithStatus(http.StatusForbidden)
		}).
		GET("/x", func(c *gin.Context) {
			c.String(http.StatusOK, "reached")
		})
	NewRouter(engine).Register(group).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guarded/x", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func newTestEngine(t *testing.T, chat *recordingRouter, recorder *metrics.Recorder) *gin.Engine {
	t.Helper()
	engine, err := New(
		Config{ServiceName: "dukaan-test", MetricsPath: "/metrics", MaxBodySize: 1 << 10},
		Handlers{
			Webhook:     handler.NewWebhookHandler(handler.WebhookConfig{VerifyToken: "tok"}, chat, nil, zap.NewNop()),
			System:      handler.NewSystemHandler("dukaan-dost", "test"),
			Metrics:     recorder.Handler(),
			HTTPMetrics: recorder,
		},
		zap.NewNop(),
	)
	require.NoError(t, err)
	return engine
}

func TestNew_Routes(t *testing.T) {
	chat := &recordingRouter{}
	recorder := metrics.NewRecorder()
	engine := newTestEngine(t, chat, recorder)

	t.Run("webhook verification", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
			"/webhook?hub.mode=subscribe&hub.verify_token=tok&hub.challenge=777", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "777", w.Body.String())
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	})

	t.Run("webhook delivery", func(t *testing.T) {
		body := `{"entry":[{"changes":[{"value":{"messages":[{"id":"m1","from":"911","type":"text","text":{"body":"hi"}}]}}]}]}`
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body)))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"911:hi"}, chat.calls)
	})

	t.Run("oversized delivery is rejected", func(t *testing.T) {
		body := strings.Repeat("x", 4<<10)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body)))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("health and ping", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, "pong", w.Body.String())
	})

	t.Run("metrics exposition", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "dukaan_http_requests_total")
	})
}

func TestNew_InvalidTrustedProxy(t *testing.T) {
	_, err := New(Config{TrustedProxies: []string{"not-an-ip"}}, Handlers{}, zap.NewNop())
	assert.Error(t, err)
}
