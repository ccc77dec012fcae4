// Package notify is the ops alerting channel. Four severities cover
// the run-level events the pipeline emits: info (empty batch),
// success (clean run), warning (per-order failures, run with errors)
// and critical (the run itself failed).
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Severity classifies an alert
type Severity string

// Alert severities
const (
	SeverityInfo     Severity = "info"
	SeveritySuccess  Severity = "success"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Notifier emits operational alerts. Implementations must never fail
// the run: delivery errors are logged and swallowed.
type Notifier interface {
	Info(ctx context.Context, title, message string, fields map[string]string)
	Success(ctx context.Context, title, message string, fields map[string]string)
	Warning(ctx context.Context, title, message string, fields map[string]string)
	Critical(ctx context.Context, title, message string, fields map[string]string)
}

// LogNotifier writes alerts to the structured log only. Used when no
// messaging channel is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-only notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Info logs an info alert
func (n *LogNotifier) Info(_ context.Context, title, message string, fields map[string]string) {
	n.log(SeverityInfo, title, message, fields)
}

// Success logs a success alert
func (n *LogNotifier) Success(_ context.Context, title, message string, fields map[string]string) {
	n.log(SeveritySuccess, title, message, fields)
}

// Warning logs a warning alert
func (n *LogNotifier) Warning(_ context.Context, title, message string, fields map[string]string) {
	n.log(SeverityWarning, title, message, fields)
}

// Critical logs a critical alert
func (n *LogNotifier) Critical(_ context.Context, title, message string, fields map[string]string) {
	n.log(SeverityCritical, title, message, fields)
}

func (n *LogNotifier) log(severity Severity, title, message string, fields map[string]string) {
	zapFields := []zap.Field{
		zap.String("severity", string(severity)),
		zap.String("title", title),
		zap.String("message", message),
	}
	for k, v := range fields {
		zapFields = append(zapFields, zap.String(k, v))
	}

	switch severity {
	case SeverityWarning:
		n.logger.Warn("Alert", zapFields...)
	case SeverityCritical:
		n.logger.Error("Alert", zapFields...)
	default:
		n.logger.Info("Alert", zapFields...)
	}
}
