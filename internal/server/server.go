// Package server wires the PitchDesk HTTP API: stores, services,
// middleware, routes, and lifecycle.
package server

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	"github.com/pitchdesk/pitchdesk/internal/access"
	"github.com/pitchdesk/pitchdesk/internal/apikey"
	"github.com/pitchdesk/pitchdesk/internal/billing"
	"github.com/pitchdesk/pitchdesk/internal/chat"
	"github.com/pitchdesk/pitchdesk/internal/circuitbreaker"
	"github.com/pitchdesk/pitchdesk/internal/company"
	"github.com/pitchdesk/pitchdesk/internal/config"
	"github.com/pitchdesk/pitchdesk/internal/conversation"
	"github.com/pitchdesk/pitchdesk/internal/entitlement"
	"github.com/pitchdesk/pitchdesk/internal/health"
	"github.com/pitchdesk/pitchdesk/internal/knowledge"
	"github.com/pitchdesk/pitchdesk/internal/lead"
	"github.com/pitchdesk/pitchdesk/internal/logging"
	"github.com/pitchdesk/pitchdesk/internal/membership"
	"github.com/pitchdesk/pitchdesk/internal/metrics"
	"github.com/pitchdesk/pitchdesk/internal/plan"
	"github.com/pitchdesk/pitchdesk/internal/ratelimit"
	"github.com/pitchdesk/pitchdesk/internal/realtime"
	"github.com/pitchdesk/pitchdesk/internal/security"
	"github.com/pitchdesk/pitchdesk/internal/subscription"
	"github.com/pitchdesk/pitchdesk/internal/traces"
	"github.com/pitchdesk/pitchdesk/internal/validation"
	"github.com/pitchdesk/pitchdesk/internal/webhooks"
)

// Generator failure handling: trip after this many consecutive
// failures, retry after the cooldown.
const (
	breakerThreshold = 5
	breakerCooldown  = 30 * time.Second
)

// Server is the PitchDesk API server.
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *sql.DB
	router  *gin.Engine
	httpSrv *http.Server

	// Stores
	companies    company.Store
	plans        plan.Store
	subStore     subscription.Store
	convs        conversation.Store
	chunks       knowledge.Store
	leads        lead.Store
	webhookStore webhooks.Store

	// Services
	keys       *apikey.Manager
	members    *membership.Service
	subs       *subscription.Service
	resolver   *access.Resolver
	gate       *entitlement.Gate
	chatSvc    *chat.Service
	generator  chat.Generator
	hub        *realtime.Hub
	dispatcher *webhooks.Dispatcher
	billing    *billing.Service

	limiter      *ratelimit.Limiter
	checks       *health.Registry
	stopTracing  func(context.Context) error
	cancelRunCtx context.CancelFunc

	ready   atomic.Bool
	healthy atomic.Bool
}

// Option configures a Server during New.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithGenerator injects the reply generator. Without it the server
// falls back to the built-in scripted generator (demo mode).
func WithGenerator(g chat.Generator) Option {
	return func(s *Server) { s.generator = g }
}

// New creates a fully wired server. With DATABASE_URL set every store
// is Postgres-backed; without it everything runs in memory, which is
// the demo and test mode.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:    cfg,
		checks: health.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.New(cfg.LogLevel, "text")
	}
	s.healthy.Store(true)

	if cfg.DatabaseURL != "" {
		db, err := openDB(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		s.db = db
		s.checks.Register("database", health.DatabaseChecker(db))
		s.logger.Info("using postgres stores", "dsn", maskDSN(cfg.DatabaseURL))

		s.companies = company.NewPostgresStore(db)
		s.plans = plan.NewPostgresStore(db)
		s.subStore = subscription.NewPostgresStore(db)
		s.convs = conversation.NewPostgresStore(db)
		s.chunks = knowledge.NewPostgresStore(db)
		s.leads = lead.NewPostgresStore(db)
		s.webhookStore = webhooks.NewPostgresStore(db)
		s.keys = apikey.NewManager(apikey.NewPostgresStore(db))
		s.members = membership.NewService(membership.NewPostgresStore(db))
	} else {
		s.logger.Info("no DATABASE_URL set, using in-memory stores (demo mode)")

		s.companies = company.NewMemoryStore()
		s.plans = plan.NewMemoryStore()
		s.subStore = subscription.NewMemoryStore()
		s.convs = conversation.NewMemoryStore()
		s.chunks = knowledge.NewMemoryStore()
		s.leads = lead.NewMemoryStore()
		s.webhookStore = webhooks.NewMemoryStore()
		s.keys = apikey.NewManager(apikey.NewMemoryStore())
		s.members = membership.NewService(membership.NewMemoryStore())
	}

	s.subs = subscription.NewService(s.subStore, cfg.TrialDays)
	s.resolver = access.NewResolver(s.members.Store(), cfg.OwnerBootstrapUserID)
	s.gate = entitlement.NewGate(s.subStore, s.plans, s.companies)

	s.hub = realtime.NewHub(s.logger)
	s.dispatcher = webhooks.NewDispatcher(s.webhookStore)

	if s.generator == nil {
		s.generator = newScriptedGenerator(cfg.GeneratorModel)
	}
	s.chatSvc = chat.NewService(
		s.companies,
		s.convs,
		s.chunks,
		s.leads,
		s.gate,
		ratelimit.NewWindowCounter(),
		circuitbreaker.New(breakerThreshold, breakerCooldown),
		s.generator,
		&eventFanout{hub: s.hub, dispatcher: s.dispatcher},
	)

	if cfg.StripeSecretKey != "" {
		s.billing = billing.NewService(billing.Config{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
			ReturnURL:     cfg.BillingReturnURL,
		}, s.companies, s.subStore, s.plans)
		s.logger.Info("stripe billing enabled")
	} else {
		s.logger.Info("no STRIPE_SECRET_KEY set, billing endpoints disabled")
	}

	limitCfg := ratelimit.DefaultConfig()
	if cfg.RateLimitRPM > 0 {
		limitCfg.RequestsPerMinute = cfg.RateLimitRPM
		limitCfg.BurstSize = max(cfg.RateLimitRPM/4, 1)
	}
	s.limiter = ratelimit.New(limitCfg)

	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

func openDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// maskDSN hides credentials when logging the connection string.
func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	u.User = url.User(u.User.Username())
	return u.String()
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

func (s *Server) setupMiddleware() {
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, err any) {
		s.logger.Error("panic recovered",
			"error", fmt.Sprintf("%v", err),
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "dependency_failure",
			"message": "An internal error occurred",
		})
	}))

	s.router.Use(security.HeadersMiddleware())
	s.router.Use(security.CORSMiddleware(s.cfg.WidgetOrigins))
	s.router.Use(validation.RequestSizeMiddleware(validation.MaxRequestSize))
	s.router.Use(s.limiter.Middleware())
	s.router.Use(metrics.Middleware())
	s.router.Use(s.requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}
		c.Header("X-Request-ID", requestID)

		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger.With("request_id", requestID))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		// Metrics endpoint scrapes are noise.
		if path == "/metrics" {
			return
		}

		latency := time.Since(start)
		status := c.Writer.Status()
		logger := logging.L(c.Request.Context())

		switch {
		case status >= 500:
			logger.Error("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		case status >= 400:
			logger.Warn("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		default:
			logger.Info("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}
	}
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRunCtx = cancel

	stopTracing, err := traces.Init(runCtx, s.cfg.OTLPEndpoint, s.logger)
	if err != nil {
		s.logger.Warn("tracing init failed, continuing without", "error", err)
	} else {
		s.stopTracing = stopTracing
	}

	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "port", s.cfg.Port, "env", s.cfg.Env)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	go s.hub.Run(runCtx)

	if s.db != nil {
		metrics.StartDBStatsCollector(runCtx, s.db, 15*time.Second)
	}

	// Mark ready after a brief startup delay.
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.ready.Store(true)
		s.logger.Info("server ready")
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	if s.cancelRunCtx != nil {
		s.cancelRunCtx()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	if s.limiter != nil {
		s.limiter.Stop()
	}

	if s.stopTracing != nil {
		if err := s.stopTracing(ctx); err != nil {
			s.logger.Error("tracing shutdown error", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("database close error", "error", err)
		} else {
			s.logger.Info("database connection closed")
		}
	}

	s.logger.Info("server stopped")
	return nil
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func generateRequestID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}
