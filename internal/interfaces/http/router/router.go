// Package router assembles the gin engine: middleware chain plus routes.
package router

import (
	"net/http"

	"github.com/dukaandost/backend/internal/infrastructure/logger"
	"github.com/dukaandost/backend/internal/interfaces/http/handler"
	"github.com/dukaandost/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	registrars []RouteRegistrar
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine) *Router {
	return &Router{
		engine:     engine,
		registrars: make([]RouteRegistrar, 0),
	}
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes on the engine root
func (r *Router) Setup() {
	root := &r.engine.RouterGroup
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(root)
	}
}

// RouteGroup collects routes sharing a prefix and middleware
type RouteGroup struct {
	name       string
	prefix     string
	routes     []routeDefinition
	middleware []gin.HandlerFunc
}

type routeDefinition struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewRouteGroup creates a named route group
func NewRouteGroup(name, prefix string) *RouteGroup {
	return &RouteGroup{name: name, prefix: prefix}
}

// Use adds middleware to this group
func (g *RouteGroup) Use(middleware ...gin.HandlerFunc) *RouteGroup {
	g.middleware = append(g.middleware, middleware...)
	return g
}

// GET registers a GET route
func (g *RouteGroup) GET(path string, handlers ...gin.HandlerFunc) *RouteGroup {
	return g.handle(http.MethodGet, path, handlers)
}

// POST registers a POST route
func (g *RouteGroup) POST(path string, handlers ...gin.HandlerFunc) *RouteGroup {
	return g.handle(http.MethodPost, path, handlers)
}

func (g *RouteGroup) handle(method, path string, handlers []gin.HandlerFunc) *RouteGroup {
	g.routes = append(g.routes, routeDefinition{method: method, path: path, handlers: handlers})
	return g
}

// RegisterRoutes implements RouteRegistrar
func (g *RouteGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(g.prefix)
	if len(g.middleware) > 0 {
		group.Use(g.middleware...)
	}
	for _, route := range g.routes {
		group.Handle(route.method, route.path, route.handlers...)
	}
}

// Name returns the group name
func (g *RouteGroup) Name() string {
	return g.name
}

// Config shapes the engine built by New
type Config struct {
	ServiceName    string
	MetricsPath    string
	MaxBodySize    int64
	TrustedProxies []string
	Tracing        bool
}

// Handlers are the endpoints mounted by New. Nil entries are skipped.
type Handlers struct {
	Webhook *handler.WebhookHandler
	System  *handler.SystemHandler
	// Metrics serves the Prometheus exposition at Config.MetricsPath
	Metrics     http.Handler
	HTTPMetrics middleware.HTTPObserver
}

// New builds the gin engine with the full middleware chain
func New(cfg Config, h Handlers, log *zap.Logger) (*gin.Engine, error) {
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	quiet := []string{"/health", "/ping"}
	if cfg.MetricsPath != "" {
		quiet = append(quiet, cfg.MetricsPath)
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log, logger.WithQuietPaths(quiet...)))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.ServiceName,
		Enabled:     cfg.Tracing,
		Filter: func(r *http.Request) bool {
			return r.URL.Path == cfg.MetricsPath || r.URL.Path == "/health"
		},
	}))
	engine.Use(middleware.SpanEnricher())
	if h.HTTPMetrics != nil {
		engine.Use(middleware.Metrics(h.HTTPMetrics))
	}
	engine.Use(middleware.Secure())
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	r := NewRouter(engine)
	if h.System != nil {
		r.Register(NewRouteGroup("system", "").
			GET("/health", h.System.Health).
			GET("/ping", h.System.Ping).
			GET("/info", h.System.Info))
	}
	if h.Webhook != nil {
		r.Register(NewRouteGroup("webhook", "/webhook").
			GET("", h.Webhook.Verify).
			POST("", h.Webhook.Receive))
	}
	if h.Metrics != nil && cfg.MetricsPath != "" {
		r.Register(NewRouteGroup("metrics", "").GET(cfg.MetricsPath, gin.WrapH(h.Metrics)))
	}
	r.Setup()

	return engine, nil
}
