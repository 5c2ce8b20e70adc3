package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/lgch/luna/internal/agent"
	"github.com/lgch/luna/internal/calendar"
	"github.com/lgch/luna/internal/calsync"
	"github.com/lgch/luna/internal/config"
	"github.com/lgch/luna/internal/google"
	"github.com/lgch/luna/internal/instrumentation"
	"github.com/lgch/luna/internal/logging"
	"github.com/lgch/luna/internal/resources"
	"github.com/lgch/luna/internal/server"
	"github.com/lgch/luna/internal/service"
	"github.com/lgch/luna/internal/store"
	"github.com/lgch/luna/internal/tools/dispatch"
	"github.com/lgch/luna/internal/tools/google_tools"
	"github.com/lgch/luna/internal/tools/luna_tools"
	"github.com/lgch/luna/internal/voice"
)

// googleToolPrefix marks the OAuth tools, which are for MCP clients only
// and never offered to the agent.
const googleToolPrefix = "google_"

// newLogger returns the process logger. Logs always go to w so stdout stays
// free for the stdio transport.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	if debug {
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// appOptions selects what newApp builds.
type appOptions struct {
	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger

	// agent builds the prompt handler configured by cfg.Agent.
	agent bool
	// persistentMemory keeps conversations in Badger at cfg.Agent.MemoryPath.
	persistentMemory bool
	// migrate overrides cfg.Database.Migrate when set.
	migrate *bool
}

// app wires the store, calendar sync, tools and agent shared by the
// commands.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *store.DB
	service *service.Service
	sc      *server.ServerContext
	mcp     *mcpserver.MCPServer
	agent   agent.PromptHandler

	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts appOptions) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	migrate := cfg.Database.Migrate
	if opts.migrate != nil {
		migrate = *opts.migrate
	}
	a.db, err = openStore(ctx, cfg.Database, migrate, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.db.Close)

	provider, auth, err := newCalendarProvider(ctx, cfg.Google, logger)
	if err != nil {
		return nil, err
	}
	syncer := calsync.New(provider, calsync.Options{
		Timeout: cfg.Google.SyncTimeout,
		Metrics: opts.metrics,
		Logger:  logging.WithService(logger, instrumentation.ServiceCalendar),
	})
	a.service = service.New(a.db, syncer,
		service.WithLogger(logger),
		service.WithRecordingDir(voice.NewRecordingWriter(cfg.Voice.RecordingDir).Dir()),
	)

	scOpts := []server.ServerContextOption{
		server.WithLogger(logger),
		server.WithMetrics(opts.metrics),
		server.WithAuditLogger(opts.audit),
	}
	if auth != nil {
		scOpts = append(scOpts, server.WithGoogleAuth(auth))
	}
	a.sc = server.NewServerContext(ctx, a.service, scOpts...)
	a.closers = append(a.closers, a.sc.Shutdown)

	a.mcp = newMCPServer()
	if err := registerAll(a.mcp, a.sc); err != nil {
		return nil, err
	}

	if opts.agent {
		if a.agent, err = a.newAgent(opts.persistentMemory); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Close releases everything newApp opened, newest first.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func openStore(ctx context.Context, cfg config.Database, migrate bool, logger *slog.Logger) (*store.DB, error) {
	db, err := store.Open(ctx, store.Config{
		Driver: cfg.Driver,
		DSN:    cfg.URI,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if !migrate {
		return db, nil
	}
	n, err := db.Migrate(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if n > 0 {
		logger.Info("database migrated", slog.Int("applied", n))
	}
	return db, nil
}

// newCalendarProvider returns the Google Calendar client, or nil when no
// OAuth client or token is configured. The Auth is returned whenever an
// OAuth client exists so the google_* tools can complete authorization.
func newCalendarProvider(ctx context.Context, cfg config.Google, logger *slog.Logger) (calendar.Provider, *google.Auth, error) {
	if !cfg.Configured() {
		logger.Info("calendar sync disabled: no Google OAuth client configured")
		return nil, nil, nil
	}

	gcfg := googleConfig(cfg)
	auth, err := google.NewAuth(gcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to configure Google OAuth: %w", err)
	}

	var tokens google.TokenProvider = auth
	if cfg.RefreshToken != "" {
		rp, err := google.NewRefreshTokenProvider(gcfg, cfg.RefreshToken)
		if err != nil {
			return nil, nil, err
		}
		tokens = rp
	}
	if !tokens.HasToken() {
		logger.Warn("calendar sync disabled until authorized", slog.String("hint", google.AuthenticationErrorMessage()))
		return nil, auth, nil
	}

	client, err := calendar.NewClient(ctx, tokens, cfg.CalendarID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create calendar client: %w", err)
	}
	logger.Info("calendar sync enabled", slog.String("calendar_id", cfg.CalendarID))
	return client, auth, nil
}

func googleConfig(cfg config.Google) google.Config {
	return google.Config{
		ClientID:        cfg.ClientID,
		ClientSecret:    cfg.ClientSecret,
		CredentialsFile: cfg.CredentialsFile,
		TokenFile:       cfg.TokenFile,
	}
}

func newMCPServer() *mcpserver.MCPServer {
	return mcpserver.NewMCPServer("luna", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)
}

// registerAll registers all MCP tools and resources.
func registerAll(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	registrations := []struct {
		name     string
		register func() error
	}{
		{"Luna tools", func() error { return luna_tools.RegisterLunaTools(mcpSrv, sc) }},
		{"Google tools", func() error { return google_tools.RegisterGoogleTools(mcpSrv, sc) }},
		{"Luna resources", func() error { return resources.RegisterLunaResources(mcpSrv, sc) }},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}
	return nil
}

func (a *app) newAgent(persistentMemory bool) (agent.PromptHandler, error) {
	tools := dispatch.New(a.mcp, dispatch.WithExcludedPrefixes(googleToolPrefix))

	switch a.cfg.Agent.Kind {
	case config.AgentRules:
		return agent.NewRuleAgent(tools), nil

	case config.AgentOpenAI:
		memory, err := a.openMemory(persistentMemory)
		if err != nil {
			return nil, err
		}
		h, err := agent.NewOpenAIAgent(agent.OpenAIConfig{
			APIKey:        a.cfg.OpenAI.APIKey,
			BaseURL:       a.cfg.OpenAI.BaseURL,
			Model:         a.cfg.Agent.Model,
			Name:          a.cfg.Agent.Name,
			MaxIterations: a.cfg.Agent.MaxIterations,
			HistoryTokens: a.cfg.Agent.HistoryTokens,
		}, tools,
			agent.WithMemory(memory),
			agent.WithLogger(a.logger),
		)
		if err != nil {
			return nil, err
		}
		return h, nil

	default:
		return nil, fmt.Errorf("unknown agent %q, must be %s or %s", a.cfg.Agent.Kind, config.AgentOpenAI, config.AgentRules)
	}
}

func (a *app) openMemory(persistent bool) (agent.MemoryStore, error) {
	var (
		memory agent.MemoryStore
		err    error
	)
	if persistent && a.cfg.Agent.MemoryPath != "" {
		memory, err = agent.OpenBadgerMemoryStore(agent.BadgerOptions{
			Path:   a.cfg.Agent.MemoryPath,
			TTL:    a.cfg.Agent.MemoryTTL,
			Logger: logging.WithService(a.logger, "badger"),
		})
		if err != nil {
			return nil, err
		}
	} else {
		ttl := a.cfg.Agent.MemoryTTL
		if ttl <= 0 {
			ttl = agent.DefaultMemoryTTL
		}
		memory = agent.NewInMemoryStore(ttl)
	}
	a.closers = append(a.closers, memory.Close)
	return memory, nil
}
