package infra

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tnqbao/gau-media-service/config"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	otellog "go.opentelemetry.io/otel/log"
)

// LoggerClient writes every record to the console and to the OpenTelemetry
// log pipeline.
type LoggerClient struct {
	console *slog.Logger
	otel    *slog.Logger
}

func InitLoggerClient(cfg *config.EnvConfig, provider otellog.LoggerProvider) *LoggerClient {
	level := slog.LevelInfo
	if cfg.Environment.Mode == "development" {
		level = slog.LevelDebug
	}
	return NewLoggerClient(cfg.Grafana.ServiceName, provider, os.Stdout, level)
}

func NewLoggerClient(serviceName string, provider otellog.LoggerProvider, w io.Writer, level slog.Level) *LoggerClient {
	console := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})).
		With("service", serviceName)
	return &LoggerClient{
		console: console,
		otel:    otelslog.NewLogger(serviceName, otelslog.WithLoggerProvider(provider)),
	}
}

func (l *LoggerClient) log(ctx context.Context, level slog.Level, msg string, attrs ...any) {
	l.console.Log(ctx, level, msg, attrs...)
	l.otel.Log(ctx, level, msg, attrs...)
}

func (l *LoggerClient) DebugWithContextf(ctx context.Context, format string, args ...interface{}) {
	l.log(ctx, slog.LevelDebug, fmt.Sprintf(format, args...))
}

func (l *LoggerClient) InfoWithContextf(ctx context.Context, format string, args ...interface{}) {
	l.log(ctx, slog.LevelInfo, fmt.Sprintf(format, args...))
}

func (l *LoggerClient) WarningWithContextf(ctx context.Context, format string, args ...interface{}) {
	l.log(ctx, slog.LevelWarn, fmt.Sprintf(format, args...))
}

// ErrorWithContextf logs at error level; err may be nil.
func (l *LoggerClient) ErrorWithContextf(ctx context.Context, err error, format string, args ...interface{}) {
	if err != nil {
		l.log(ctx, slog.LevelError, fmt.Sprintf(format, args...), "error", err.Error())
		return
	}
	l.log(ctx, slog.LevelError, fmt.Sprintf(format, args...))
}
