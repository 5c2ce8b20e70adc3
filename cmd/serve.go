package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/lgch/luna/internal/config"
	"github.com/lgch/luna/internal/instrumentation"
	"github.com/lgch/luna/internal/logging"
	"github.com/lgch/luna/internal/server"
	"github.com/lgch/luna/internal/voice"
)

// serveFlags are the serve options that override the config file and
// environment when set on the command line.
type serveFlags struct {
	transport      string
	httpAddr       string
	agent          string
	metricsEnabled bool
	metricsAddr    string
	migrate        bool
}

// apply copies the flags the user set explicitly into cfg.
func (f serveFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("transport") {
		cfg.Server.Transport = f.transport
	}
	if flags.Changed("http-addr") {
		cfg.Server.HTTPAddr = f.httpAddr
	}
	if flags.Changed("agent") {
		cfg.Agent.Kind = f.agent
	}
	if flags.Changed("metrics-enabled") {
		cfg.Metrics.Enabled = f.metricsEnabled
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = f.metricsAddr
	}
	if flags.Changed("migrate") {
		cfg.Database.Migrate = f.migrate
	}
}

func newServeCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Luna server",
		Long: `Start Luna.

Supports two transport types:
  - http: Twilio voice webhooks (/twilio/call, /twilio/process_audio),
    the Twilio media stream WebSocket (/media-stream), the agent API
    (POST /run_agent), the MCP streamable HTTP endpoint (/mcp) and
    health checks (/healthz, /readyz)
  - stdio: MCP over standard input/output for AI assistants

Configuration:
  Values come from the config file (--config, default
  $XDG_CONFIG_HOME/luna/config.yaml), then the environment (a .env file in
  the working directory is loaded), then these flags.

  Database:       DB_URI (postgres://... or a SQLite file path), DB_DRIVER
  Agent:          OPENAI_API_KEY, OPENAI_MODEL, LUNA_AGENT (openai or rules)
  Twilio:         TWILIO_AUTH_TOKEN enables webhook signature checks,
                  PUBLIC_URL is the externally visible base URL
  Google:         GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET (or
                  GOOGLE_CREDENTIALS_FILE), GOOGLE_CALENDAR_ID`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVar(&flags.transport, "transport", config.TransportHTTP, "Transport type: http or stdio")
	cmd.Flags().StringVar(&flags.httpAddr, "http-addr", ":5000", "HTTP server address (for http transport). Can also use LUNA_HTTP_ADDR env var.")
	cmd.Flags().StringVar(&flags.agent, "agent", config.AgentOpenAI, "Agent: openai (language model) or rules (fixed phrases, no API key). Can also use LUNA_AGENT env var.")
	cmd.Flags().BoolVar(&flags.metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", ":9090", "Metrics server address. Can also use METRICS_ADDR env var.")
	cmd.Flags().BoolVar(&flags.migrate, "migrate", true, "Apply pending database migrations on startup. Can also use DB_MIGRATE env var.")

	return cmd
}

func runServe(cfg *config.Config) (err error) {
	logger := newLogger(os.Stderr, cfg.Debug)
	slog.SetDefault(logger)

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var shutdownErrs []error
	defer func() {
		err = errors.Join(append([]error{err}, shutdownErrs...)...)
	}()

	instrConfig, err := instrumentation.ConfigFromOSEnv()
	if err != nil {
		return fmt.Errorf("invalid instrumentation configuration: %w", err)
	}
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			shutdownErrs = append(shutdownErrs, fmt.Errorf("instrumentation shutdown: %w", err))
		}
	}()

	var (
		metrics *instrumentation.Metrics
		audit   *instrumentation.AuditLogger
	)
	if provider.Enabled() {
		metrics = provider.Metrics()
		audit = instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)
	}

	// Start metrics server if enabled and not in stdio mode
	httpTransport := cfg.Server.Transport == config.TransportHTTP
	if httpTransport && cfg.Metrics.Enabled && provider.Enabled() {
		metricsServer, err := startMetricsServer(cfg.Metrics.Addr, provider, logger)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				shutdownErrs = append(shutdownErrs, fmt.Errorf("metrics server shutdown: %w", err))
			}
		}()
	}

	a, err := newApp(shutdownCtx, cfg, logger, appOptions{
		metrics:          metrics,
		audit:            audit,
		agent:            httpTransport,
		persistentMemory: true,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			shutdownErrs = append(shutdownErrs, err)
		}
	}()

	switch cfg.Server.Transport {
	case config.TransportStdio:
		return runStdioServer(a.mcp, logger)
	case config.TransportHTTP:
		return runHTTPServer(shutdownCtx, a)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: http, stdio)", cfg.Server.Transport)
	}
}

// startMetricsServer starts the metrics listener and waits until it is
// accepting connections or has failed.
func startMetricsServer(addr string, provider *instrumentation.Provider, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		Enabled:                 true,
		InstrumentationProvider: provider,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	// A bind failure surfaces almost immediately.
	select {
	case err := <-metricsErr:
		if err != nil {
			return nil, fmt.Errorf("metrics server failed to start: %w", err)
		}
	case <-time.After(200 * time.Millisecond):
		logger.Info("metrics server started", slog.String("addr", metricsServer.Addr()))
	}
	return metricsServer, nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer, logger *slog.Logger) error {
	errLogger := slog.NewLogLogger(logger.Handler(), slog.LevelError)

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv, mcpserver.WithErrorLogger(errLogger)); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runHTTPServer(ctx context.Context, a *app) error {
	cfg := a.cfg
	health := server.NewHealthChecker(a.sc, version)

	transcriber, synthesizer, err := newVoice(cfg, a.logger)
	if err != nil {
		return err
	}

	httpServer, err := server.NewHTTPServer(a.sc, server.HTTPServerConfig{
		Addr:            cfg.Server.HTTPAddr,
		Agent:           a.agent,
		AgentName:       cfg.Agent.Kind,
		AgentTimeout:    cfg.Agent.Timeout,
		MCPServer:       a.mcp,
		Health:          health,
		TwilioAuthToken: cfg.Twilio.AuthToken,
		PublicURL:       cfg.Server.PublicURL,
		Transcriber:     transcriber,
		Synthesizer:     synthesizer,
		Recorder:        voice.NewRecordingWriter(cfg.Voice.RecordingDir),
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}
	if cfg.Twilio.AuthToken == "" {
		a.logger.Warn("TWILIO_AUTH_TOKEN not set, Twilio webhook signatures are not verified")
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		a.logger.Info("shutdown signal received, stopping HTTP server")
	}

	health.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error during HTTP server shutdown: %w", err)
	}
	return nil
}

// newVoice builds the phone speech clients. Both are nil without an OpenAI
// key, in which case media streams only record audio.
func newVoice(cfg *config.Config, logger *slog.Logger) (voice.Transcriber, voice.Synthesizer, error) {
	if cfg.OpenAI.APIKey == "" {
		logger.Warn("OPENAI_API_KEY not set, media stream speech recognition disabled")
		return nil, nil, nil
	}
	vcfg := voice.OpenAIConfig{APIKey: cfg.OpenAI.APIKey, BaseURL: cfg.OpenAI.BaseURL}

	transcriber, err := voice.NewWhisperTranscriber(vcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create transcriber: %w", err)
	}
	if !cfg.Voice.TTS {
		return transcriber, nil, nil
	}
	synthesizer, err := voice.NewOpenAISynthesizer(vcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create synthesizer: %w", err)
	}
	logger.Debug("speech synthesis enabled", logging.Service(instrumentation.ServiceOpenAI))
	return transcriber, synthesizer, nil
}
