package gateway

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DryRun logs instead of sending and fabricates message ids, so the
// full lifecycle can be exercised without touching the platform.
type DryRun struct {
	logger *zap.Logger
}

func NewDryRun(logger *zap.Logger) *DryRun {
	return &DryRun{logger: logger}
}

func (d *DryRun) Send(ctx context.Context, m Message) (string, error) {
	id := "dry-" + uuid.NewString()
	d.logger.Info("dry_run_send",
		zap.String("ts", id),
		zap.String("thread", m.ThreadID),
		zap.String("text", m.Text),
		zap.Int("actions", len(m.Actions)),
	)
	return id, nil
}
