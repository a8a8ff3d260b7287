package config

import (
	"os"
	"strings"
)

const (
	appNameVar         = "APP_NAME"
	envVar             = "ENV"
	logLevelVar        = "LOG_LEVEL"
	authServiceURLVar  = "AUTH_SERVICE_URL"
	tracingEndpointVar = "OTEL_EXPORTER_OTLP_ENDPOINT"
	metricsAddrVar     = "METRICS_ADDR"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Career Booklet")
}

func (EnvVars) GetEnv() string {
	return strings.ToUpper(GetEnv(envVar, "DEV"))
}

func (EnvVars) GetLogLevel() string {
	return strings.ToLower(GetEnv(logLevelVar, "info"))
}

// GetAuthServiceURL returns the API gateway base URL the auth endpoints hang off
// (e.g. "http://127.0.0.1:8000"). A trailing slash is removed.
func (EnvVars) GetAuthServiceURL() string {
	return strings.TrimRight(GetEnv(authServiceURLVar, "http://127.0.0.1:8000"), "/")
}

// GetTracingEndpoint returns the OTLP/HTTP collector URL. Tracing is off when it is empty.
func (EnvVars) GetTracingEndpoint() string {
	return GetEnv(tracingEndpointVar, "")
}

// GetMetricsAddr returns the listen address of the /metrics endpoint, empty to disable it
func (EnvVars) GetMetricsAddr() string {
	return GetEnv(metricsAddrVar, "")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
