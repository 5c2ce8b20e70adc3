package config

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Transports accepted by Server.Transport.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Agent kinds accepted by Agent.Kind.
const (
	AgentOpenAI = "openai"
	AgentRules  = "rules"
)

// Database drivers accepted by Database.Driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the complete runtime configuration of Luna.
type Config struct {
	Debug    bool     `yaml:"debug"`
	Server   Server   `yaml:"server"`
	Database Database `yaml:"database"`
	Agent    Agent    `yaml:"agent"`
	OpenAI   OpenAI   `yaml:"openai"`
	Voice    Voice    `yaml:"voice"`
	Twilio   Twilio   `yaml:"twilio"`
	Google   Google   `yaml:"google"`
	Metrics  Metrics  `yaml:"metrics"`
}

// Server configures the transports.
type Server struct {
	// Transport is "http" (webhooks, REST and MCP over HTTP) or "stdio" (MCP only).
	Transport string `yaml:"transport"`
	HTTPAddr  string `yaml:"http_addr"`
	// PublicURL is the externally visible base URL used to verify Twilio
	// signatures behind a proxy.
	PublicURL       string        `yaml:"public_url"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Database selects the persistence backend.
type Database struct {
	Driver  string `yaml:"driver"`
	URI     string `yaml:"uri"`
	Migrate bool   `yaml:"migrate"`
}

// Agent configures the prompt handler.
type Agent struct {
	Kind          string        `yaml:"kind"`
	Name          string        `yaml:"name"`
	Model         string        `yaml:"model"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxIterations int           `yaml:"max_iterations"`
	HistoryTokens int           `yaml:"history_tokens"`
	// MemoryPath is the Badger directory for conversation memory. Empty
	// keeps conversations in process memory only.
	MemoryPath string        `yaml:"memory_path"`
	MemoryTTL  time.Duration `yaml:"memory_ttl"`
}

// OpenAI holds the API credentials shared by the agent and voice clients.
type OpenAI struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// Voice configures speech handling on phone calls.
type Voice struct {
	// TTS enables synthesized audio replies on media streams.
	TTS          bool   `yaml:"tts"`
	RecordingDir string `yaml:"recording_dir"`
}

// Twilio configures webhook verification.
type Twilio struct {
	// AuthToken enables X-Twilio-Signature validation when set.
	AuthToken string `yaml:"auth_token"`
}

// Google configures OAuth and calendar sync.
type Google struct {
	ClientID        string        `yaml:"client_id"`
	ClientSecret    string        `yaml:"client_secret"`
	CredentialsFile string        `yaml:"credentials_file"`
	TokenFile       string        `yaml:"token_file"`
	RefreshToken    string        `yaml:"refresh_token"`
	CalendarID      string        `yaml:"calendar_id"`
	SyncTimeout     time.Duration `yaml:"sync_timeout"`
}

// Configured reports whether an OAuth client is available.
func (g Google) Configured() bool {
	return g.CredentialsFile != "" || (g.ClientID != "" && g.ClientSecret != "")
}

// Metrics configures the dedicated metrics listener.
type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// DefaultPath returns $XDG_CONFIG_HOME/luna/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "luna", "config.yaml")
}

// DefaultDatabasePath returns $XDG_DATA_HOME/luna/luna.db.
func DefaultDatabasePath() string {
	return filepath.Join(xdg.DataHome, "luna", "luna.db")
}

// DefaultMemoryPath returns $XDG_DATA_HOME/luna/memory.
func DefaultMemoryPath() string {
	return filepath.Join(xdg.DataHome, "luna", "memory")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: Server{
			Transport:       TransportHTTP,
			HTTPAddr:        ":5000",
			ShutdownTimeout: 30 * time.Second,
		},
		Database: Database{
			Driver:  DriverSQLite,
			URI:     DefaultDatabasePath(),
			Migrate: true,
		},
		Agent: Agent{
			Kind:       AgentOpenAI,
			Name:       "Luna",
			Timeout:    2 * time.Minute,
			MemoryPath: DefaultMemoryPath(),
		},
		Voice: Voice{
			TTS:          true,
			RecordingDir: "recordings",
		},
		Google: Google{
			CalendarID:  "primary",
			SyncTimeout: 10 * time.Second,
		},
		Metrics: Metrics{
			Enabled: true,
			Addr:    ":9090",
		},
	}
}

// Load builds a Config from the defaults, the YAML file at path and the
// environment, in that order. A .env file in the working directory is
// loaded first. An empty path reads DefaultPath when it exists; an explicit
// path must exist.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	optional := path == ""
	if optional {
		path = DefaultPath()
	}
	if err := cfg.LoadFile(path); err != nil {
		if !optional || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile merges the YAML file at path into c. Unknown keys are rejected.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides c with the environment variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	env := envReader{lookup: lookup}

	env.bool("LUNA_DEBUG", &c.Debug)
	env.string("LUNA_TRANSPORT", &c.Server.Transport)
	env.string("LUNA_HTTP_ADDR", &c.Server.HTTPAddr)
	env.string("PUBLIC_URL", &c.Server.PublicURL)

	if uri, ok := env.value("DB_URI"); ok {
		c.Database.URI = uri
		c.Database.Driver = DriverFromURI(uri)
	}
	env.string("DB_DRIVER", &c.Database.Driver)
	env.bool("DB_MIGRATE", &c.Database.Migrate)

	env.string("LUNA_AGENT", &c.Agent.Kind)
	env.string("LUNA_NAME", &c.Agent.Name)
	env.string("OPENAI_MODEL", &c.Agent.Model)
	env.duration("LUNA_AGENT_TIMEOUT", &c.Agent.Timeout)
	env.string("LUNA_MEMORY_PATH", &c.Agent.MemoryPath)
	env.duration("LUNA_MEMORY_TTL", &c.Agent.MemoryTTL)

	env.string("OPENAI_API_KEY", &c.OpenAI.APIKey)
	env.string("OPENAI_BASE_URL", &c.OpenAI.BaseURL)

	env.bool("LUNA_TTS", &c.Voice.TTS)
	env.string("LUNA_RECORDING_DIR", &c.Voice.RecordingDir)

	env.string("TWILIO_AUTH_TOKEN", &c.Twilio.AuthToken)

	env.string("GOOGLE_CLIENT_ID", &c.Google.ClientID)
	env.string("GOOGLE_CLIENT_SECRET", &c.Google.ClientSecret)
	env.string("GOOGLE_CREDENTIALS_FILE", &c.Google.CredentialsFile)
	env.string("GOOGLE_TOKEN_FILE", &c.Google.TokenFile)
	env.string("GOOGLE_REFRESH_TOKEN", &c.Google.RefreshToken)
	env.string("GOOGLE_CALENDAR_ID", &c.Google.CalendarID)
	env.duration("GOOGLE_SYNC_TIMEOUT", &c.Google.SyncTimeout)

	env.bool("METRICS_ENABLED", &c.Metrics.Enabled)
	env.string("METRICS_ADDR", &c.Metrics.Addr)

	return errors.Join(env.errs...)
}

// DriverFromURI guesses the database driver from a connection string.
func DriverFromURI(uri string) string {
	lower := strings.ToLower(uri)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

// Validate checks that c is usable.
func (c *Config) Validate() error {
	var errs []error

	switch c.Server.Transport {
	case TransportHTTP:
		if err := validateAddr(c.Server.HTTPAddr); err != nil {
			errs = append(errs, fmt.Errorf("invalid http address: %w", err))
		}
	case TransportStdio:
	default:
		errs = append(errs, fmt.Errorf("invalid transport %q, must be http or stdio", c.Server.Transport))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown timeout must be positive"))
	}

	switch strings.ToLower(c.Database.Driver) {
	case DriverPostgres, "postgresql", "pgx":
		if c.Database.URI == "" {
			errs = append(errs, fmt.Errorf("database uri is required for postgres"))
		}
	case DriverSQLite, "sqlite3":
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver %q, must be postgres or sqlite", c.Database.Driver))
	}

	switch c.Agent.Kind {
	case AgentOpenAI:
		// The stdio transport serves tools only and never runs the agent.
		if c.OpenAI.APIKey == "" && c.Server.Transport != TransportStdio {
			errs = append(errs, fmt.Errorf("OPENAI_API_KEY is required for the openai agent"))
		}
	case AgentRules:
	default:
		errs = append(errs, fmt.Errorf("invalid agent %q, must be openai or rules", c.Agent.Kind))
	}
	if c.Agent.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("agent timeout must be positive"))
	}
	if c.Agent.MaxIterations < 0 || c.Agent.HistoryTokens < 0 || c.Agent.MemoryTTL < 0 {
		errs = append(errs, fmt.Errorf("agent limits must not be negative"))
	}

	if c.Google.SyncTimeout <= 0 {
		errs = append(errs, fmt.Errorf("calendar sync timeout must be positive"))
	}

	if c.Metrics.Enabled {
		if err := validateAddr(c.Metrics.Addr); err != nil {
			errs = append(errs, fmt.Errorf("invalid metrics address: %w", err))
		} else if c.Server.Transport == TransportHTTP && c.Metrics.Addr == c.Server.HTTPAddr {
			errs = append(errs, fmt.Errorf("metrics address %s collides with the http address", c.Metrics.Addr))
		}
	}

	return errors.Join(errs...)
}

func validateAddr(addr string) error {
	if addr == "" {
		return fmt.Errorf("address is empty")
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("invalid port %q", port)
	}
	return nil
}

// envReader applies non-empty variables and collects parse errors.
type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *envReader) value(key string) (string, bool) {
	v, ok := e.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (e *envReader) string(key string, dst *string) {
	if v, ok := e.value(key); ok {
		*dst = v
	}
}

func (e *envReader) bool(key string, dst *bool) {
	v, ok := e.value(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid boolean %q", key, v))
		return
	}
	*dst = b
}

func (e *envReader) duration(key string, dst *time.Duration) {
	v, ok := e.value(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return
	}
	*dst = d
}
