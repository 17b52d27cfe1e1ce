package escalation

import (
	"context"
	"log/slog"

	"creditgate/internal/audit/models"
)

// LogSink writes escalations as ERROR-level log lines for log-based alerting.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		panic("escalation log sink requires a logger")
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Escalate(ctx context.Context, v models.ViolationRecord) error {
	s.logger.ErrorContext(ctx, "CRITICAL: compliance violation escalated",
		"violation_id", v.ViolationID.String(),
		"actor_id", v.ActorID.String(),
		"violation_type", v.ViolationType,
		"severity", string(v.Severity),
		"log_type", "compliance",
	)
	return nil
}
