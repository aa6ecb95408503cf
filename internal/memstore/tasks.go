package memstore

import (
	"context"
	"time"

	"collabhub/internal/database"
	"collabhub/internal/models"
)

// TaskStore implements services.TaskStore
type TaskStore struct {
	db *DB
}

func cloneTask(t *models.Task) *models.Task {
	c := *t
	c.Assignees = append([]string(nil), t.Assignees...)
	return &c
}

func cloneTasks(rows []*models.Task) []*models.Task {
	out := make([]*models.Task, len(rows))
	for i, t := range rows {
		out[i] = cloneTask(t)
	}
	return out
}

func (s *TaskStore) titleTaken(projectID, title, exceptID string) bool {
	for _, t := range s.db.tasks.rows {
		if t.ProjectID == projectID && t.Title == title && t.ID != exceptID {
			return true
		}
	}
	return false
}

func (s *TaskStore) Create(ctx context.Context, task *models.Task) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.tasks.get(task.ID); ok || s.titleTaken(task.ProjectID, task.Title, "") {
		return database.ErrDuplicate
	}
	s.db.tasks.put(task.ID, cloneTask(task))
	return nil
}

func (s *TaskStore) GetByID(ctx context.Context, id string) (*models.Task, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	t, ok := s.db.tasks.get(id)
	if !ok {
		return nil, database.ErrNotFound
	}
	return cloneTask(t), nil
}

func (s *TaskStore) GetByTitle(ctx context.Context, projectID, title string) (*models.Task, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	rows := s.db.tasks.filter(func(t *models.Task) bool {
		return t.ProjectID == projectID && t.Title == title
	})
	if len(rows) == 0 {
		return nil, database.ErrNotFound
	}
	return cloneTask(rows[0]), nil
}

func (s *TaskStore) ListByProject(ctx context.Context, projectID string) ([]*models.Task, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return cloneTasks(s.db.tasks.filter(func(t *models.Task) bool { return t.ProjectID == projectID })), nil
}

func (s *TaskStore) ListByCreator(ctx context.Context, userID string) ([]*models.Task, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return cloneTasks(s.db.tasks.filter(func(t *models.Task) bool { return t.CreatorID == userID })), nil
}

func (s *TaskStore) ListByAssignee(ctx context.Context, userID string) ([]*models.Task, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return cloneTasks(s.db.tasks.filter(func(t *models.Task) bool { return t.HasAssignee(userID) })), nil
}

func (s *TaskStore) Update(ctx context.Context, task *models.Task) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.tasks.get(task.ID); !ok {
		return database.ErrNotFound
	}
	if s.titleTaken(task.ProjectID, task.Title, task.ID) {
		return database.ErrDuplicate
	}
	s.db.tasks.put(task.ID, cloneTask(task))
	return nil
}

func (s *TaskStore) Delete(ctx context.Context, projectID, taskID string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	t, ok := s.db.tasks.get(taskID)
	if !ok || t.ProjectID != projectID {
		return database.ErrNotFound
	}
	s.db.tasks.remove(taskID)
	return nil
}

func (s *TaskStore) CountByProject(ctx context.Context, projectID string, now time.Time) (models.TaskCounts, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var counts models.TaskCounts
	for _, t := range s.db.tasks.rows {
		if t.ProjectID != projectID {
			continue
		}
		counts.Total++
		if t.Status == models.TaskStatusCompleted {
			counts.Completed++
		}
		if t.IsOverdue(now) {
			counts.Overdue++
		}
	}
	return counts, nil
}

// TaskHistoryStore implements services.TaskHistoryStore
type TaskHistoryStore struct {
	db *DB
}

func (s *TaskHistoryStore) Append(ctx context.Context, entries ...*models.TaskHistory) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, e := range entries {
		if _, ok := s.db.history.get(e.ID); ok {
			return database.ErrDuplicate
		}
		s.db.history.put(e.ID, clone(e))
	}
	return nil
}

// ListByTask returns entries newest first
func (s *TaskHistoryStore) ListByTask(ctx context.Context, taskID string) ([]*models.TaskHistory, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return reversed(cloneAll(s.db.history.filter(func(h *models.TaskHistory) bool {
		return h.TaskID == taskID
	}))), nil
}
