package telemetry

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTELHook adds trace and span IDs to every log entry
type OTELHook struct{}

func (h OTELHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	// Skip if no context
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}

	// Extract span from context
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return
	}

	// Add trace context to log
	e.Str("trace_id", span.SpanContext().TraceID().String())
	e.Str("span_id", span.SpanContext().SpanID().String())

	if level == zerolog.ErrorLevel {
		span.SetStatus(codes.Error, msg)
	}
}

// Logger wraps zerolog with OTEL integration
type Logger struct {
	zerolog.Logger
}

// NewLogger creates a new logger scoped to one component
func NewLogger(component string) *Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("component", component).
		Logger().
		Hook(OTELHook{})

	return &Logger{Logger: logger}
}

// WithContext returns a logger with context (for trace propagation)
func (l *Logger) WithContext(ctx context.Context) *zerolog.Logger {
	logger := l.Logger.With().Ctx(ctx).Logger()
	return &logger
}

// SetLevel applies the configured log level globally.
func SetLevel(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

// Convenience methods for scan execution

func (l *Logger) LogScanStarted(ctx context.Context, scanID string, regions int) {
	l.WithContext(ctx).Info().
		Str("scan_id", scanID).
		Int("regions", regions).
		Msg("scan started")
}

func (l *Logger) LogRegionDone(ctx context.Context, scanID, region string, failed int, durationMs int64) {
	l.WithContext(ctx).Info().
		Str("scan_id", scanID).
		Str("region", region).
		Int("failed_probes", failed).
		Int64("duration_ms", durationMs).
		Msg("region scan finished")
}

func (l *Logger) LogScanFinished(ctx context.Context, scanID string, status string, err error) {
	event := l.WithContext(ctx).Info()
	if err != nil {
		event = l.WithContext(ctx).Error().Err(err)
	}
	event.
		Str("scan_id", scanID).
		Str("status", status).
		Msg("scan finished")
}
