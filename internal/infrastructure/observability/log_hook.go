package observability

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	otellog "go.opentelemetry.io/otel/log"
)

// OTelHook forwards zerolog events to an OpenTelemetry logger. Only the
// message and level are exported; structured fields stay in the local sink.
type OTelHook struct {
	logger otellog.Logger
}

// NewOTelHook creates a hook emitting through provider.
func NewOTelHook(provider otellog.LoggerProvider, name string) *OTelHook {
	return &OTelHook{logger: provider.Logger(name)}
}

// Run implements zerolog.Hook
func (h *OTelHook) Run(e *zerolog.Event, level zerolog.Level, message string) {
	if level == zerolog.NoLevel || level == zerolog.Disabled {
		return
	}

	var record otellog.Record
	record.SetTimestamp(time.Now())
	record.SetBody(otellog.StringValue(message))
	record.SetSeverity(severityFor(level))
	record.SetSeverityText(level.String())

	ctx := e.GetCtx()
	if ctx == nil {
		ctx = context.Background()
	}
	h.logger.Emit(ctx, record)
}

func severityFor(level zerolog.Level) otellog.Severity {
	switch level {
	case zerolog.TraceLevel:
		return otellog.SeverityTrace
	case zerolog.DebugLevel:
		return otellog.SeverityDebug
	case zerolog.InfoLevel:
		return otellog.SeverityInfo
	case zerolog.WarnLevel:
		return otellog.SeverityWarn
	case zerolog.ErrorLevel:
		return otellog.SeverityError
	case zerolog.FatalLevel:
		return otellog.SeverityFatal
	case zerolog.PanicLevel:
		return otellog.SeverityFatal4
	}
	return otellog.SeverityUndefined
}
