package instrumentation

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config controls which telemetry Luna exports and where to.
type Config struct {
	// ServiceName is reported as service.name (default: luna).
	ServiceName string

	// ServiceVersion is reported as service.version.
	ServiceVersion string

	// ServiceInstanceID tells replicas apart (default: hostname).
	ServiceInstanceID string

	// Environment is reported as deployment.environment, for example
	// "production" or "staging". Empty omits the attribute.
	Environment string

	// Enabled turns metrics and tracing on (default: true).
	Enabled bool

	// MetricsExporter is prometheus, otlp or stdout (default: prometheus).
	MetricsExporter string

	// TracingExporter is otlp, stdout or none (default: none).
	TracingExporter string

	// OTLPEndpoint is the collector host:port, without a scheme.
	OTLPEndpoint string

	// OTLPInsecure sends OTLP over plain HTTP. Traces carry thread ids and
	// tool names, so keep it for local collectors.
	OTLPInsecure bool

	// TraceSamplingRate is the parent based ratio sampler argument, 0.0 to 1.0
	// (default: 0.1).
	TraceSamplingRate float64

	// DetailedLabels adds the caller transport to tool metrics.
	DetailedLabels bool

	// AuditLogging configures the tool audit log.
	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig holds configuration for audit logging.
type AuditLoggingConfig struct {
	// Enabled determines if audit logging is active (default: true)
	Enabled bool

	// IncludePII controls whether caller phone numbers are logged in full.
	// When false (default), only the last four digits are kept.
	IncludePII bool

	// LogLevel sets the slog level for audit log messages (default: INFO).
	// Options: "debug", "info", "warn", "error"
	LogLevel string
}

// DefaultConfig returns the built-in telemetry settings: Prometheus metrics,
// no tracing, audit logging with masked phone numbers.
func DefaultConfig() Config {
	return Config{
		ServiceName:       "luna",
		ServiceVersion:    "unknown",
		Enabled:           true,
		MetricsExporter:   ExporterPrometheus,
		TracingExporter:   ExporterNone,
		TraceSamplingRate: 0.1,
		AuditLogging: AuditLoggingConfig{
			Enabled:  true,
			LogLevel: "info",
		},
	}
}

// ConfigFromEnv returns DefaultConfig overridden by the standard OTEL_*
// variables and Luna's own telemetry variables. Malformed values are
// reported together and leave the default in place.
func ConfigFromEnv(lookup func(string) (string, bool)) (Config, error) {
	c := DefaultConfig()
	env := envSource{lookup: lookup}

	env.string(&c.ServiceName, "OTEL_SERVICE_NAME")
	env.string(&c.ServiceInstanceID, "OTEL_SERVICE_INSTANCE_ID", "HOSTNAME")
	env.string(&c.Environment, "LUNA_ENV")
	env.bool(&c.Enabled, "INSTRUMENTATION_ENABLED")
	env.string(&c.MetricsExporter, "METRICS_EXPORTER")
	env.string(&c.TracingExporter, "TRACING_EXPORTER")
	env.string(&c.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	env.bool(&c.OTLPInsecure, "OTEL_EXPORTER_OTLP_INSECURE")
	env.float(&c.TraceSamplingRate, "OTEL_TRACES_SAMPLER_ARG")
	env.bool(&c.DetailedLabels, "METRICS_DETAILED_LABELS")
	env.bool(&c.AuditLogging.Enabled, "AUDIT_LOGGING_ENABLED")
	env.bool(&c.AuditLogging.IncludePII, "AUDIT_LOGGING_INCLUDE_PII")
	env.string(&c.AuditLogging.LogLevel, "AUDIT_LOGGING_LEVEL")

	// Collectors are configured with a URL more often than host:port.
	c.OTLPEndpoint = strings.TrimPrefix(strings.TrimPrefix(c.OTLPEndpoint, "https://"), "http://")

	return c, errors.Join(env.errs...)
}

// ConfigFromOSEnv is ConfigFromEnv over the process environment.
func ConfigFromOSEnv() (Config, error) {
	return ConfigFromEnv(os.LookupEnv)
}

// envSource reads the first non-blank variable of a list of names.
type envSource struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *envSource) first(keys []string) (key, value string, ok bool) {
	for _, k := range keys {
		if v, found := e.lookup(k); found && strings.TrimSpace(v) != "" {
			return k, strings.TrimSpace(v), true
		}
	}
	return "", "", false
}

func (e *envSource) string(dst *string, keys ...string) {
	if _, v, ok := e.first(keys); ok {
		*dst = v
	}
}

func (e *envSource) bool(dst *bool, keys ...string) {
	k, v, ok := e.first(keys)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not a boolean", k, v))
		return
	}
	*dst = b
}

func (e *envSource) float(dst *float64, keys ...string) {
	k, v, ok := e.first(keys)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not a number", k, v))
		return
	}
	*dst = f
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		errs = append(errs, fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %g", c.TraceSamplingRate))
	}

	switch c.MetricsExporter {
	case "", ExporterPrometheus, ExporterOTLP, ExporterStdout:
	default:
		errs = append(errs, fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter))
	}

	switch c.TracingExporter {
	case "", ExporterOTLP, ExporterStdout, ExporterNone:
	default:
		errs = append(errs, fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter))
	}

	if c.OTLPEndpoint == "" && (c.TracingExporter == ExporterOTLP || c.MetricsExporter == ExporterOTLP) {
		errs = append(errs, errors.New("OTLP endpoint is required when an OTLP exporter is selected, set OTEL_EXPORTER_OTLP_ENDPOINT"))
	}

	switch strings.ToLower(c.AuditLogging.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid audit log level %q", c.AuditLogging.LogLevel))
	}

	return errors.Join(errs...)
}

// Constants for metric label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"

	// External services Luna calls.
	ServiceCalendar = "calendar"
	ServiceOpenAI   = "openai"
	ServiceTwilio   = "twilio"

	// Exporter types
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)
