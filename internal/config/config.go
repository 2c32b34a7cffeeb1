// Package config declares the orchestrator's declarative configuration:
// per-feature provider selection plus the ambient logging, cache, and
// telemetry settings, loaded from YAML with an optional .env overlay.
package config

// ProviderConfig selects a provider name for a feature and carries a
// free-form options map for that provider, matching the teacher's
// feature/provider/options shape.
type ProviderConfig struct {
	Provider string         `yaml:"provider"`
	Options  map[string]any `yaml:"options"`
}

// QuerySettings holds the orchestrator's default iteration cap.
type QuerySettings struct {
	MaxIter int `yaml:"max_iter"`
}

// RedisConfig enables the optional route/judge cache.
type RedisConfig struct {
	Enabled               bool   `yaml:"enabled"`
	Addr                  string `yaml:"addr"`
	Password              string `yaml:"password"`
	DB                    int    `yaml:"db"`
	TLSInsecureSkipVerify bool   `yaml:"tls_insecure_skip_verify"`
}

// AuditConfig enables the optional Postgres audit sink and/or Kafka
// completed-query publisher. Both are write-only; see internal/audit.
type AuditConfig struct {
	Postgres struct {
		Enabled bool   `yaml:"enabled"`
		DSN     string `yaml:"dsn"`
	} `yaml:"postgres"`
	Kafka struct {
		Enabled bool   `yaml:"enabled"`
		Brokers string `yaml:"brokers"`
		Topic   string `yaml:"topic"`
	} `yaml:"kafka"`
}

// LoggingConfig controls the zerolog setup.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug|info|warn|error; default info
	JSON  bool   `yaml:"json"`  // not read by InitLogger, which always writes zerolog JSON
}

// ObsConfig controls the optional OpenTelemetry tracing/metrics exporter.
// Empty OTLP disables it entirely; InitOTel is never called in that case.
type ObsConfig struct {
	OTLP           string `yaml:"otlp"`
	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"service_version"`
	Environment    string `yaml:"environment"`
}

// Config is the top-level orchestrator configuration.
type Config struct {
	LLM       ProviderConfig `yaml:"llm"`
	Embedding ProviderConfig `yaml:"embedding"`
	VectorDB  ProviderConfig `yaml:"vector_db"`

	QuerySettings QuerySettings `yaml:"query_settings"`
	Redis         RedisConfig   `yaml:"redis"`
	Audit         AuditConfig   `yaml:"audit"`
	Logging       LoggingConfig `yaml:"logging"`
	Obs           ObsConfig     `yaml:"obs"`

	HTTPAddr string `yaml:"http_addr"`
}

// Defaults returns a Config usable without any YAML file: deterministic
// embedder, in-memory vector store, and a max_iter of 3 as in spec §6.1.
func Defaults() Config {
	return Config{
		LLM:           ProviderConfig{Provider: "anthropic"},
		Embedding:     ProviderConfig{Provider: "deterministic"},
		VectorDB:      ProviderConfig{Provider: "memory"},
		QuerySettings: QuerySettings{MaxIter: 3},
		Logging:       LoggingConfig{Level: "info"},
		Obs:           ObsConfig{ServiceName: "deepsearcher", Environment: "development"},
		HTTPAddr:      ":8080",
	}
}
