package observability

import (
	"os"
	"strconv"
	"strings"

	"github.com/smallbiznis/comercia/internal/config"
)

// Config is the observability slice of configuration: service identity,
// log shape, and OTLP export settings. OTEL_* variables win over the
// application config so deploy tooling can steer exporters directly.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

func LoadConfig(cfg config.Config) Config {
	out := Config{
		ServiceName:          strings.TrimSpace(cfg.AppName),
		Environment:          envOr("DEPLOYMENT_ENV", cfg.Environment),
		Version:              envOr("SERVICE_VERSION", cfg.AppVersion),
		LogLevel:             strings.ToLower(envOr("LOG_LEVEL", "info")),
		LogFormat:            strings.ToLower(envOr("LOG_FORMAT", "json")),
		OtelEnabled:          boolEnv("OTEL_ENABLED", true),
		OtelExporterEndpoint: envOr("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint),
		OtelExporterProtocol: strings.ToLower(envOr("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")),
		OtelSamplingRatio:    floatEnv("OTEL_SAMPLING_RATIO", 0.1),
	}
	if out.ServiceName == "" {
		out.ServiceName = "comercia"
	}
	return out
}

// Debug reports whether verbose request logging should be on: either an
// explicit debug log level or a non-production environment.
func (c Config) Debug() bool {
	if c.LogLevel == "debug" {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return strings.TrimSpace(fallback)
}

func boolEnv(key string, fallback bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return fallback
	}
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func floatEnv(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil {
		return fallback
	}
	return v
}
