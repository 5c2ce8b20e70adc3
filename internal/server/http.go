package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/lgch/luna/internal/agent"
	"github.com/lgch/luna/internal/instrumentation"
	"github.com/lgch/luna/internal/logging"
	"github.com/lgch/luna/internal/voice"
)

const (
	// DefaultHTTPAddr is the default address of the public HTTP server.
	DefaultHTTPAddr = ":5000"

	// DefaultAgentTimeout bounds one prompt handled over HTTP or a call.
	DefaultAgentTimeout = 2 * time.Minute

	maxPromptBodyBytes = 1 << 20
)

// HTTPServerConfig configures the public HTTP server.
type HTTPServerConfig struct {
	// Addr is the listen address, DefaultHTTPAddr when empty.
	Addr string

	// Agent answers prompts from /run_agent, Twilio webhooks and media
	// streams. Required.
	Agent agent.PromptHandler

	// AgentName labels agent metrics and spans ("openai", "rules").
	AgentName string

	// AgentTimeout bounds a single prompt, DefaultAgentTimeout when zero.
	AgentTimeout time.Duration

	// MCPServer is exposed on /mcp when set.
	MCPServer *mcpserver.MCPServer

	// Health serves /healthz, /readyz and /healthz/detailed when set.
	Health *HealthChecker

	// TwilioAuthToken enables X-Twilio-Signature validation when set.
	TwilioAuthToken string

	// PublicURL is the externally visible base URL Twilio signs requests
	// against. When empty it is derived from the request.
	PublicURL string

	// Transcriber converts media stream audio to text. Media streams are
	// recorded but not answered without one.
	Transcriber voice.Transcriber

	// Synthesizer speaks replies back over the media stream when set.
	Synthesizer voice.Synthesizer

	// Recorder saves the audio of each media stream call when set.
	Recorder *voice.RecordingWriter
}

// HTTPServer serves the agent endpoint, Twilio webhooks, the media stream
// WebSocket and the MCP streamable HTTP endpoint.
type HTTPServer struct {
	serverContext *ServerContext
	config        HTTPServerConfig
	logger        *slog.Logger
	upgrader      websocket.Upgrader
	httpServer    *http.Server
}

// NewHTTPServer creates the public HTTP server.
func NewHTTPServer(sc *ServerContext, config HTTPServerConfig) (*HTTPServer, error) {
	if sc == nil {
		return nil, fmt.Errorf("server context is required")
	}
	if config.Agent == nil {
		return nil, fmt.Errorf("agent is required")
	}
	if config.Addr == "" {
		config.Addr = DefaultHTTPAddr
	}
	if config.AgentName == "" {
		config.AgentName = "agent"
	}
	if config.AgentTimeout <= 0 {
		config.AgentTimeout = DefaultAgentTimeout
	}
	config.PublicURL = strings.TrimRight(config.PublicURL, "/")

	return &HTTPServer{
		serverContext: sc,
		config:        config,
		logger:        sc.Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Twilio does not send an Origin header.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}, nil
}

// Handler returns the routed handler wrapped in the metrics middleware.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /run_agent", s.handleRunAgent)
	mux.Handle("POST /twilio/call", s.validateTwilio(http.HandlerFunc(s.handleTwilioCall)))
	mux.Handle("POST /twilio/process_audio", s.validateTwilio(http.HandlerFunc(s.handleTwilioProcessAudio)))
	mux.HandleFunc("GET /media-stream", s.handleMediaStream)

	if s.config.MCPServer != nil {
		mcpHTTP := mcpserver.NewStreamableHTTPServer(s.config.MCPServer,
			mcpserver.WithEndpointPath("/mcp"),
			mcpserver.WithHTTPContextFunc(func(ctx context.Context, _ *http.Request) context.Context {
				return instrumentation.WithCaller(ctx, instrumentation.Caller{Transport: instrumentation.TransportMCP})
			}),
		)
		mux.Handle("/mcp", mcpHTTP)
	}

	if s.config.Health != nil {
		s.config.Health.RegisterHealthEndpoints(mux)
	}

	return MetricsMiddleware(s.serverContext.Metrics(), mux)
}

// Start listens on the configured address. It blocks until the server is
// shut down.
func (s *HTTPServer) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", s.config.Addr, "agent", s.config.AgentName)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		s.logger.Info("shutting down HTTP server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Addr returns the configured listen address.
func (s *HTTPServer) Addr() string {
	return s.config.Addr
}

type runAgentRequest struct {
	Prompt   string `json:"prompt"`
	ThreadID string `json:"thread_id,omitempty"`
}

type runAgentResponse struct {
	Result string `json:"result"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *HTTPServer) handleRunAgent(w http.ResponseWriter, r *http.Request) {
	var req runAgentRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPromptBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing 'prompt' in JSON body"})
		return
	}

	threadID := req.ThreadID
	if threadID == "" {
		threadID = agent.DefaultHTTPThread
	}

	caller := instrumentation.Caller{Transport: instrumentation.TransportHTTP, ThreadID: threadID}
	result, err := s.runPrompt(r.Context(), caller, req.Prompt)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, runAgentResponse{Result: result})
}

// runPrompt hands prompt to the agent under caller's thread, recording the
// agent span and metrics. Panics in the agent are turned into errors.
func (s *HTTPServer) runPrompt(ctx context.Context, caller instrumentation.Caller, prompt string) (result string, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.AgentTimeout)
	defer cancel()

	ctx = instrumentation.WithCaller(ctx, caller)
	ctx, span := instrumentation.StartAgentSpan(ctx, s.config.AgentName, caller.ThreadID)
	defer span.End()

	logger := s.logger.With(logging.Thread(caller.ThreadID), slog.String("transport", caller.Transport))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("agent panic: %v", r)
		}

		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
			logger.Error("agent request failed",
				logging.Err(err),
				slog.Duration("duration", time.Since(start)),
				slog.String("trace_id", instrumentation.GetTraceID(ctx)),
			)
		} else {
			instrumentation.SetSpanSuccess(span)
			logger.Debug("agent request completed", slog.Duration("duration", time.Since(start)))
		}
		if m := s.serverContext.Metrics(); m != nil {
			m.RecordAgentRequest(ctx, s.config.AgentName, status, time.Since(start))
		}
	}()

	logger.Debug("agent request", slog.String("prompt", logging.Truncate(prompt, 80)))
	result, err = s.config.Agent.HandlePrompt(ctx, caller.ThreadID, prompt)
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("agent timed out after %s: %w", s.config.AgentTimeout, err)
	}
	return result, err
}
