package observability

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger initializes zerolog with sane defaults. If logPath is non-empty,
// logs are written to that file (append mode) instead of stdout. If opening
// the file fails, logs fall back to stdout, and an error is printed to stderr.
func InitLogger(logPath string, level string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	var w io.Writer = os.Stdout
	if logPath != "" {
		if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			// When a log file is configured, write only to the file to avoid
			// interfering with interactive UIs (e.g., TUI) that use stdout.
			w = f
		} else {
			// best-effort; continue with stdout
			_, _ = fmt.Fprintf(os.Stderr, "failed to open log file %q: %v\n", logPath, err)
		}
	}
	baseWriter = w
	log.Logger = log.Output(w).With().Timestamp().Logger()
	// Parse level
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		level = "warn"
	}
	lvl := zerolog.InfoLevel
	if level != "" {
		if l, err := zerolog.ParseLevel(level); err == nil {
			lvl = l
		}
	}
	zerolog.SetGlobalLevel(lvl)
	// Redirect the standard library logger so ALL logs are captured.
	stdlog.SetFlags(0)
	stdlog.SetOutput(log.Logger)
}

// baseWriter is the output InitLogger last configured (stdout or a log
// file), kept so EnableOTelLogs can layer an OTel exporter on top of it
// without dropping the original destination.
var baseWriter io.Writer = os.Stdout

// EnableOTelLogs fans the logger's output out to an OpenTelemetry log
// writer in addition to its existing destination. The writer emits to the
// global OpenTelemetry log provider; InitOTel installs only tracer and meter
// providers, so unless a log provider is set elsewhere these records go to
// the default no-op provider and are not exported.
func EnableOTelLogs(serviceName string) {
	log.Logger = log.Output(zerolog.MultiLevelWriter(baseWriter, NewOTelWriter(serviceName))).With().Timestamp().Logger()
}
