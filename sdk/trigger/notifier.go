package trigger

import (
	"context"

	"github.com/rockbears/log"
)

// Notifier shows user facing notifications.
type Notifier interface {
	Success(ctx context.Context, title, msg string)
	Error(ctx context.Context, title, msg string)
}

// LogNotifier writes notifications to the logger.
type LogNotifier struct{}

// Success implements Notifier.
func (LogNotifier) Success(ctx context.Context, title, msg string) {
	log.Info(ctx, "%s: %s", title, msg)
}

// Error implements Notifier.
func (LogNotifier) Error(ctx context.Context, title, msg string) {
	log.Error(ctx, "%s: %s", title, msg)
}
