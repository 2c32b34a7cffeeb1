package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file (defaulting to config.yaml, or
// CONFIG_PATH if set), then applies environment variable overrides. A
// missing YAML file is not an error: Load falls back to Defaults().
// Matches the teacher's Overload-then-layer bootstrapping style.
func Load() (Config, error) {
	_ = godotenv.Overload()

	cfg := Defaults()

	path := strings.TrimSpace(os.Getenv("CONFIG_PATH"))
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("LLM_PROVIDER")); v != "" {
		cfg.LLM.Provider = v
	}
	if v := strings.TrimSpace(os.Getenv("EMBEDDING_PROVIDER")); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := strings.TrimSpace(os.Getenv("VECTOR_DB_PROVIDER")); v != "" {
		cfg.VectorDB.Provider = v
	}
	if v := strings.TrimSpace(os.Getenv("MAX_ITER")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.QuerySettings.MaxIter = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_ADDR")); v != "" {
		cfg.Redis.Enabled = true
		cfg.Redis.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("AUDIT_POSTGRES_DSN")); v != "" {
		cfg.Audit.Postgres.Enabled = true
		cfg.Audit.Postgres.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("AUDIT_KAFKA_BROKERS")); v != "" {
		cfg.Audit.Kafka.Enabled = true
		cfg.Audit.Kafka.Brokers = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		cfg.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")); v != "" {
		cfg.Obs.OTLP = v
	}
}
