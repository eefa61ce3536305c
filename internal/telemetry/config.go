package telemetry

// Config holds configuration for the tracer
type Config struct {
	ServiceName    string
	ServiceVersion string

	// Enabled determines whether tracing is enabled.
	// When false, a noop tracer is used.
	Enabled bool

	// Endpoint is the OTLP/HTTP collector endpoint (host:port).
	// If empty, spans are recorded but not exported.
	Endpoint string

	// SampleRate is the fraction of traces to sample (0.0 to 1.0).
	SampleRate float64
}

// DefaultConfig disables tracing; a CLI run should not need a collector.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "docreview",
		ServiceVersion: "dev",
		SampleRate:     1.0,
	}
}
