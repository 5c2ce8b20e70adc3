// Package config loads Luna's runtime configuration.
//
// Values are layered: built-in defaults, then an optional YAML file
// ($XDG_CONFIG_HOME/luna/config.yaml unless --config is given), then the
// environment (including a .env file in the working directory), then
// command line flags applied by the caller. Unknown YAML keys are rejected
// so typos fail loudly.
//
// Instrumentation settings are not part of Config; they are read from the
// OTEL_* and METRICS_* variables by instrumentation.DefaultConfig.
package config
