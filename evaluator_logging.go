package contracts

import (
	"context"
	"log/slog"
	"time"
)

// EvaluatorLogEvent describes an evaluation attempt for logging.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Rule     string
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// SlogEvaluatorLogger writes evaluation events to a slog.Logger: successful
// evaluations at debug, failures at warn.
type SlogEvaluatorLogger struct {
	Logger *slog.Logger
}

// NewSlogEvaluatorLogger wraps logger. A nil logger uses slog.Default.
func NewSlogEvaluatorLogger(logger *slog.Logger) SlogEvaluatorLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return SlogEvaluatorLogger{Logger: logger}
}

// LogEvaluation implements EvaluatorLogger.
func (l SlogEvaluatorLogger) LogEvaluation(event EvaluatorLogEvent) {
	if l.Logger == nil {
		return
	}
	attrs := []slog.Attr{
		slog.String("engine", event.Engine),
		slog.String("rule", event.Rule),
		slog.String("expr", event.Expr),
		slog.Duration("duration", event.Duration),
	}
	if event.Err != nil {
		attrs = append(attrs, slog.Any("error", event.Err))
		l.Logger.LogAttrs(context.Background(), slog.LevelWarn, "lint rule evaluation failed", attrs...)
		return
	}
	l.Logger.LogAttrs(context.Background(), slog.LevelDebug, "lint rule evaluated", attrs...)
}
