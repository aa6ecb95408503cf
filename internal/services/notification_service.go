package services

import (
	"context"
	"errors"
	"log"
	"time"

	"collabhub/internal/database"
	"collabhub/internal/models"
)

// NotificationService owns the per-user unread counters and pushes every
// change to the configured Notifier.
type NotificationService struct {
	store    NotificationStore
	projects *ProjectService
	notifier Notifier
	now      func() time.Time
}

// NewNotificationService creates a new notification service. A nil notifier
// disables realtime delivery.
func NewNotificationService(stores *Stores, projects *ProjectService, notifier Notifier) *NotificationService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &NotificationService{
		store:    stores.Notifications,
		projects: projects,
		notifier: notifier,
		now:      time.Now,
	}
}

// SetNotifier swaps the delivery channel, used once Redis pub/sub is up
func (s *NotificationService) SetNotifier(notifier Notifier) {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	s.notifier = notifier
}

// Unread returns the caller's counter for one project (zero when none)
func (s *NotificationService) Unread(ctx context.Context, userID, projectID string) (*models.Notification, error) {
	if _, err := s.projects.load(ctx, projectID); err != nil {
		return nil, err
	}
	return s.counter(ctx, userID, projectID)
}

func (s *NotificationService) counter(ctx context.Context, userID, projectID string) (*models.Notification, error) {
	n, err := s.store.Get(ctx, userID, projectID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return &models.Notification{UserID: userID, ProjectID: projectID}, nil
		}
		return nil, err
	}
	return n, nil
}

// Summary totals the caller's counters across projects
func (s *NotificationService) Summary(ctx context.Context, userID string) (*models.UnreadSummary, error) {
	rows, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := &models.UnreadSummary{Projects: make([]*models.Notification, 0, len(rows))}
	for _, n := range rows {
		if n.UnreadMessages == 0 {
			continue
		}
		summary.Total += n.UnreadMessages
		summary.Projects = append(summary.Projects, n)
	}
	return summary, nil
}

// MarkRead zeroes the caller's counter for a project and tells their sockets
func (s *NotificationService) MarkRead(ctx context.Context, userID, projectID string) error {
	if _, err := s.projects.load(ctx, projectID); err != nil {
		return err
	}
	if err := s.store.Reset(ctx, userID, projectID); err != nil {
		return err
	}
	s.push(ctx, userID, models.EventMarkRead, projectID, "")
	return nil
}

// Snapshot builds the event sent when a socket connects
func (s *NotificationService) Snapshot(ctx context.Context, userID string) (*models.NotificationEvent, error) {
	summary, err := s.Summary(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.NotificationEvent{
		Type:        models.EventSnapshot,
		TotalUnread: summary.Total,
		Timestamp:   s.now(),
	}, nil
}

// CommentPosted bumps the counter of each recipient and notifies them
func (s *NotificationService) CommentPosted(ctx context.Context, projectID, commentID string, recipients []string) error {
	if len(recipients) == 0 {
		return nil
	}
	if err := s.store.Increment(ctx, projectID, recipients); err != nil {
		return err
	}
	for _, userID := range recipients {
		s.push(ctx, userID, models.EventUnread, projectID, commentID)
	}
	return nil
}

// push sends the fresh counters for (user, project). Lookup failures only
// cost the realtime update, the stored counters are already correct.
func (s *NotificationService) push(ctx context.Context, userID, eventType, projectID, commentID string) {
	n, err := s.counter(ctx, userID, projectID)
	if err != nil {
		log.Printf("⚠️  Failed to load unread counter for user %s: %v", userID, err)
		return
	}
	summary, err := s.Summary(ctx, userID)
	if err != nil {
		log.Printf("⚠️  Failed to load unread summary for user %s: %v", userID, err)
		return
	}
	s.notifier.Notify(ctx, userID, &models.NotificationEvent{
		Type:           eventType,
		ProjectID:      projectID,
		CommentID:      commentID,
		UnreadMessages: n.UnreadMessages,
		TotalUnread:    summary.Total,
		Timestamp:      s.now(),
	})
}
