// Package notification is the narrow boundary to the external
// notification subsystem. Delivery is fire-and-forget; routing of
// SYSTEM-targeted messages happens outside the core.
package notification

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type TargetType string

const (
	TargetUser   TargetType = "USER"
	TargetSystem TargetType = "SYSTEM"
)

type Notification struct {
	Title         string
	Body          string
	TargetType    TargetType
	TargetID      string
	RelatedEntity string
}

type Sink interface {
	Publish(ctx context.Context, n Notification)
}

type logSink struct {
	log *zap.Logger
}

// NewLogSink is the default sink used when no delivery backend is wired.
func NewLogSink(log *zap.Logger) Sink {
	return &logSink{log: log.Named("notification.sink")}
}

func (s *logSink) Publish(ctx context.Context, n Notification) {
	s.log.Info("notification published",
		zap.String("title", n.Title),
		zap.String("target_type", string(n.TargetType)),
		zap.String("target_id", n.TargetID),
		zap.String("related_entity", n.RelatedEntity),
	)
}

var Module = fx.Module("notification",
	fx.Provide(NewLogSink),
)
