// Package telemetry defines the logging, metrics, and tracing interfaces used
// throughout the orchestration engine. Concrete implementations wrap
// goa.design/clue (logging) and OpenTelemetry (metrics/tracing); a noop
// implementation is substituted wherever a dependency is not configured, so
// no caller needs to nil-check before emitting telemetry.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type (
	// Logger emits structured, leveled log entries. Key-value pairs are supplied
	// as an alternating slice (key, value, key, value, ...), matching the style
	// used throughout the scheduler and its subsystems.
	Logger interface {
		Debug(ctx context.Context, msg string, keyvals ...any)
		Info(ctx context.Context, msg string, keyvals ...any)
		Warn(ctx context.Context, msg string, keyvals ...any)
		Error(ctx context.Context, msg string, keyvals ...any)
	}

	// Metrics records counters, timers, and gauges for runtime operations:
	// cycles started/completed/failed, LLM calls, JSON parse retries,
	// auto-provision attempts, and consensus votes.
	Metrics interface {
		IncCounter(name string, value float64, tags ...string)
		RecordTimer(name string, duration time.Duration, tags ...string)
		RecordGauge(name string, value float64, tags ...string)
	}

	// Tracer creates spans for planner/tool/phase execution.
	Tracer interface {
		Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span)
	}

	// Span is a single unit of traced work.
	Span interface {
		End(opts ...trace.SpanEndOption)
		AddEvent(name string, attrs ...any)
		SetStatus(code codes.Code, description string)
		RecordError(err error, opts ...trace.EventOption)
	}
)
