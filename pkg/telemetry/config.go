package telemetry

import (
	"os"
	"strings"
)

// DefaultServiceName is reported when no service name is configured.
const DefaultServiceName = "thread-dump-analysis"

// Config holds the tracing settings.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string

	// Endpoint is the OTLP collector address. An "http://" prefix implies
	// an insecure connection.
	Endpoint string

	// Protocol is "grpc" (default) or "http".
	Protocol string

	// Headers are sent with every export, e.g. Authorization.
	Headers  map[string]string
	Insecure bool

	// Sampler is one of always_on, always_off, traceidratio,
	// parentbased_always_on, parentbased_always_off, parentbased_traceidratio.
	Sampler    string
	SamplerArg string

	ResourceAttrs map[string]string
}

// DefaultConfig returns tracing disabled with gRPC export.
func DefaultConfig() *Config {
	return &Config{
		ServiceName:    DefaultServiceName,
		ServiceVersion: "dev",
		Protocol:       "grpc",
		Headers:        map[string]string{},
		ResourceAttrs:  map[string]string{},
	}
}

// ApplyEnv overrides fields with the standard OTEL_* environment variables
// that are set.
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv("OTEL_ENABLED"); ok {
		c.Enabled = strings.EqualFold(v, "true")
	}
	setFromEnv(&c.ServiceName, "OTEL_SERVICE_NAME")
	setFromEnv(&c.ServiceVersion, "OTEL_SERVICE_VERSION")
	setFromEnv(&c.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setFromEnv(&c.Protocol, "OTEL_EXPORTER_OTLP_PROTOCOL")
	setFromEnv(&c.Sampler, "OTEL_TRACES_SAMPLER")
	setFromEnv(&c.SamplerArg, "OTEL_TRACES_SAMPLER_ARG")
	if v, ok := os.LookupEnv("OTEL_EXPORTER_OTLP_INSECURE"); ok {
		c.Insecure = strings.EqualFold(v, "true")
	}
	c.Headers = mergePairs(c.Headers, os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	c.ResourceAttrs = mergePairs(c.ResourceAttrs, os.Getenv("OTEL_RESOURCE_ATTRIBUTES"))
}

func setFromEnv(field *string, key string) {
	if v := os.Getenv(key); v != "" {
		*field = v
	}
}

func mergePairs(dst map[string]string, s string) map[string]string {
	if dst == nil {
		dst = map[string]string{}
	}
	for k, v := range ParseKeyValuePairs(s) {
		dst[k] = v
	}
	return dst
}

// ParseKeyValuePairs parses "k1=v1,k2=v2". Values may contain '='; entries
// without a key are skipped.
func ParseKeyValuePairs(s string) map[string]string {
	result := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		result[key] = strings.TrimSpace(value)
	}
	return result
}
