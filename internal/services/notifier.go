package services

import (
	"context"

	"collabhub/internal/models"
)

// Notifier pushes counter changes to connected clients
type Notifier interface {
	Notify(ctx context.Context, userID string, event *models.NotificationEvent)
}

// NoopNotifier drops every event
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, string, *models.NotificationEvent) {}
