package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lgch/luna/internal/google"
	"github.com/lgch/luna/internal/instrumentation"
	"github.com/lgch/luna/internal/service"
)

// ServerContext holds the dependencies shared by tools and transports.
type ServerContext struct {
	ctx         context.Context
	cancel      context.CancelFunc
	service     *service.Service
	auth        *google.Auth
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	logger      *slog.Logger
	mu          sync.RWMutex
	shutdown    bool
}

// ServerContextOption configures a ServerContext.
type ServerContextOption func(*ServerContext)

// WithGoogleAuth sets the Google OAuth helper used by the google_* tools.
func WithGoogleAuth(auth *google.Auth) ServerContextOption {
	return func(sc *ServerContext) { sc.auth = auth }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) ServerContextOption {
	return func(sc *ServerContext) { sc.metrics = m }
}

// WithAuditLogger sets the tool audit logger.
func WithAuditLogger(al *instrumentation.AuditLogger) ServerContextOption {
	return func(sc *ServerContext) { sc.auditLogger = al }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ServerContextOption {
	return func(sc *ServerContext) {
		if l != nil {
			sc.logger = l
		}
	}
}

// NewServerContext creates a new server context around svc.
func NewServerContext(ctx context.Context, svc *service.Service, opts ...ServerContextOption) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)
	sc := &ServerContext{
		ctx:     shutdownCtx,
		cancel:  cancel,
		service: svc,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc
}

// Context returns the server context. It is cancelled on Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Service returns the operation layer.
func (sc *ServerContext) Service() *service.Service {
	return sc.service
}

// GoogleAuth returns the Google OAuth helper, or nil when Google is not
// configured.
func (sc *ServerContext) GoogleAuth() *google.Auth {
	return sc.auth
}

// Metrics returns the metrics recorder, or nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the tool audit logger, or nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.auditLogger
}

// Logger returns the logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
