package memstore

import (
	"context"
	"sort"
	"time"

	"collabhub/internal/database"
	"collabhub/internal/models"
)

// CommentStore implements services.CommentStore
type CommentStore struct {
	db *DB
}

func (s *CommentStore) Create(ctx context.Context, comment *models.Comment) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.comments.get(comment.ID); ok {
		return database.ErrDuplicate
	}
	s.db.comments.put(comment.ID, clone(comment))
	return nil
}

func (s *CommentStore) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	c, ok := s.db.comments.get(id)
	if !ok {
		return nil, database.ErrNotFound
	}
	return clone(c), nil
}

// ListByProject omits attachment bytes, like the MongoDB projection
func (s *CommentStore) ListByProject(ctx context.Context, projectID string) ([]*models.Comment, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	rows := cloneAll(s.db.comments.filter(func(c *models.Comment) bool { return c.ProjectID == projectID }))
	for _, c := range rows {
		c.FileData = ""
	}
	return rows, nil
}

// StatisticStore implements services.StatisticStore, keyed by project id
type StatisticStore struct {
	db *DB
}

func (s *StatisticStore) Get(ctx context.Context, projectID string) (*models.ProjectStatistic, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	stat, ok := s.db.statistics.get(projectID)
	if !ok {
		return nil, database.ErrNotFound
	}
	return clone(stat), nil
}

// Upsert keeps the first row id for a project
func (s *StatisticStore) Upsert(ctx context.Context, stat *models.ProjectStatistic) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	row := clone(stat)
	if existing, ok := s.db.statistics.get(stat.ProjectID); ok {
		row.ID = existing.ID
	}
	s.db.statistics.put(stat.ProjectID, row)
	return nil
}

func (s *StatisticStore) ListProjectIDs(ctx context.Context) ([]string, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return append([]string(nil), s.db.statistics.order...), nil
}

// NotificationStore implements services.NotificationStore
type NotificationStore struct {
	db *DB
}

func notificationKey(userID, projectID string) string {
	return userID + "|" + projectID
}

func (s *NotificationStore) Increment(ctx context.Context, projectID string, userIDs []string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	now := time.Now()
	for _, userID := range userIDs {
		key := notificationKey(userID, projectID)
		n, ok := s.db.notifications.get(key)
		if !ok {
			n = &models.Notification{UserID: userID, ProjectID: projectID}
			s.db.notifications.put(key, n)
		}
		n.UnreadMessages++
		n.UpdatedAt = now
	}
	return nil
}

func (s *NotificationStore) Get(ctx context.Context, userID, projectID string) (*models.Notification, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	n, ok := s.db.notifications.get(notificationKey(userID, projectID))
	if !ok {
		return nil, database.ErrNotFound
	}
	return clone(n), nil
}

// ListByUser returns the user's counters, most recently changed first
func (s *NotificationStore) ListByUser(ctx context.Context, userID string) ([]*models.Notification, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	rows := reversed(cloneAll(s.db.notifications.filter(func(n *models.Notification) bool {
		return n.UserID == userID
	})))
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].UpdatedAt.After(rows[j].UpdatedAt)
	})
	return rows, nil
}

func (s *NotificationStore) Reset(ctx context.Context, userID, projectID string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	key := notificationKey(userID, projectID)
	n, ok := s.db.notifications.get(key)
	if !ok {
		n = &models.Notification{UserID: userID, ProjectID: projectID}
		s.db.notifications.put(key, n)
	}
	n.UnreadMessages = 0
	n.UpdatedAt = time.Now()
	return nil
}
