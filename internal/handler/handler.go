// Package handler wires the portal's HTTP endpoints onto a gin engine.
package handler

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"regportal/internal/auth"
	"regportal/internal/httpmiddleware"
	"regportal/internal/metrics"
	"regportal/internal/queue"
	"regportal/internal/registration"
	"regportal/internal/report"
	"regportal/internal/store"
)

const msgInternal = "A critical server error occurred."

// Deps are the collaborators the router needs. Queue, Redis, Limiter and
// Metrics are optional.
type Deps struct {
	Logger         *slog.Logger
	Service        *registration.Service
	Sessions       *auth.Sessions
	Credentials    auth.Credentials
	Charts         *report.ChartRenderer
	Limiter        httpmiddleware.Limiter
	Queue          queue.Queue
	Redis          *store.Redis
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Origins        []string
	// TrustedProxies may set X-Forwarded-For; nil trusts no one.
	TrustedProxies []string
	Production     bool
}

// Handler serves the portal endpoints.
type Handler struct {
	log      *slog.Logger
	svc      *registration.Service
	sessions *auth.Sessions
	creds    auth.Credentials
	charts   *report.ChartRenderer
	queue    queue.Queue
	redis    *store.Redis
	metrics  *metrics.Metrics
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(d Deps) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		log:      logger,
		svc:      d.Service,
		sessions: d.Sessions,
		creds:    d.Credentials,
		charts:   d.Charts,
		queue:    d.Queue,
		redis:    d.Redis,
		metrics:  d.Metrics,
	}

	r := gin.New()
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		logger.Error("http.trusted_proxies_invalid", slog.String("error", err.Error()))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestID())
	r.Use(httpmiddleware.Logger(logger, "/healthz", "/metrics"))
	r.Use(cors.New(corsConfig(d.Origins)))
	r.Use(httpmiddleware.SecurityHeaders(d.Production))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
	}
	r.SetHTMLTemplate(Templates())

	limited := []gin.HandlerFunc{}
	if d.Limiter != nil {
		limited = append(limited, httpmiddleware.RateLimit(d.Limiter, logger))
	}

	r.GET("/", h.index)
	r.POST("/register", append(limited, h.register)...)
	r.GET("/login", h.loginForm)
	r.POST("/login", append(limited, h.login)...)
	r.GET("/logout", h.logout)
	r.GET("/dashboard", d.Sessions.RequireAdmin(), h.dashboard)
	r.GET("/healthz", h.healthz)

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Accept", "Authorization", httpmiddleware.RequestIDHeader)
	cfg.MaxAge = 12 * time.Hour
	return cfg
}

func (h *Handler) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", nil)
}

// internalError logs the real error and returns a generic message to the client.
func (h *Handler) internalError(c *gin.Context, event string, err error) {
	h.log.ErrorContext(c.Request.Context(), event,
		slog.String("error", err.Error()),
		slog.String("request_id", httpmiddleware.RequestIDFromCtx(c.Request.Context())),
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
}

func (h *Handler) countRegistration(result string) {
	if h.metrics != nil {
		h.metrics.Registrations.WithLabelValues(result).Inc()
	}
}

func (h *Handler) countLogin(result string) {
	if h.metrics != nil {
		h.metrics.Logins.WithLabelValues(result).Inc()
	}
}

func (h *Handler) healthz(c *gin.Context) {
	ctx := c.Request.Context()
	storeOK := h.svc.Healthy(ctx)

	status := http.StatusOK
	body := gin.H{"status": "ok", "store": storeOK, "redis": nil}
	if h.redis != nil {
		redisOK := h.redis.Healthy(ctx)
		body["redis"] = redisOK
		if !redisOK {
			status = http.StatusServiceUnavailable
		}
	}
	if !storeOK {
		status = http.StatusServiceUnavailable
	}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}
