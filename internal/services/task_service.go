package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"collabhub/internal/database"
	"collabhub/internal/logging"
	"collabhub/internal/models"

	"github.com/google/uuid"
)

// TaskService manages tasks inside approved projects and keeps the project
// statistics in step with every change.
type TaskService struct {
	stores   *Stores
	projects *ProjectService
	stats    *StatisticsService
	logger   *slog.Logger
	now      func() time.Time
}

// NewTaskService creates a new task service
func NewTaskService(stores *Stores, projects *ProjectService, stats *StatisticsService) *TaskService {
	return &TaskService{
		stores:   stores,
		projects: projects,
		stats:    stats,
		logger:   logging.Component("tasks"),
		now:      time.Now,
	}
}

// CreateTaskInput is the payload for a new task
type CreateTaskInput struct {
	Title       string
	Description string
	Deadline    string
	Status      string
	Priority    string
	Assignees   []string
}

// EditTaskInput carries only the fields the caller sent
type EditTaskInput struct {
	Title       *string
	Description *string
	Priority    *string
	Deadline    *string
	Status      *string
}

// dedupe removes empty and repeated ids while keeping order
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// invalidUsers returns the ids that do not resolve to a user
func (s *TaskService) invalidUsers(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	users, err := s.stores.Users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	found := make(map[string]bool, len(users))
	for _, u := range users {
		found[u.ID] = true
	}
	var invalid []string
	for _, id := range ids {
		if !found[id] {
			invalid = append(invalid, id)
		}
	}
	return invalid, nil
}

func (s *TaskService) loadTask(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := s.stores.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, notFound(err, "task not found")
	}
	return task, nil
}

func (s *TaskService) recordHistory(ctx context.Context, entries ...*models.TaskHistory) {
	if err := s.stores.TaskHistory.Append(ctx, entries...); err != nil {
		s.logger.Warn("failed to append task history", "error", err)
	}
}

func (s *TaskService) history(taskID, userID, action, oldValue, newValue string) *models.TaskHistory {
	return &models.TaskHistory{
		ID:         uuid.NewString(),
		TaskID:     taskID,
		UserID:     userID,
		Action:     action,
		OldValue:   oldValue,
		NewValue:   newValue,
		ActionTime: s.now(),
	}
}

// Create adds a task to an approved project. Assignees are validated all or
// nothing. The project statistic is recomputed afterwards.
func (s *TaskService) Create(ctx context.Context, caller Actor, projectID string, in CreateTaskInput) (*models.Task, error) {
	project, err := s.stores.Projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, NotFoundError("project not found or not approved")
		}
		return nil, err
	}
	if !project.IsApproved {
		return nil, NotFoundError("project not found or not approved")
	}
	ok, err := s.projects.IsParticipant(ctx, project, caller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ForbiddenError("not a member of this project")
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ValidationError("task title is required")
	}

	status := models.TaskStatusTodo
	if in.Status != "" {
		status = models.TaskStatus(in.Status)
	}
	if !status.Valid() {
		return nil, ValidationError("status must be 0, 1 or 2")
	}
	priority := models.TaskPriorityLow
	if in.Priority != "" {
		priority = models.TaskPriority(in.Priority)
	}
	if !priority.Valid() {
		return nil, ValidationError("priority must be 0, 1 or 2")
	}

	deadline, err := models.ParseOptionalDeadline(in.Deadline)
	if err != nil {
		return nil, ValidationError("%s", err.Error())
	}

	if _, err := s.stores.Tasks.GetByTitle(ctx, projectID, title); err == nil {
		return nil, ConflictError("task title already exists")
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	assignees := dedupe(in.Assignees)
	invalid, err := s.invalidUsers(ctx, assignees)
	if err != nil {
		return nil, err
	}
	if len(invalid) > 0 {
		return nil, ValidationError("invalid assignees").WithDetail("invalid_ids", invalid)
	}

	now := s.now()
	task := &models.Task{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Deadline:    deadline,
		Status:      status,
		Priority:    priority,
		CreatorID:   caller.ID,
		Assignees:   assignees,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.stores.Tasks.Create(ctx, task); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ConflictError("task title already exists")
		}
		return nil, err
	}
	s.recordHistory(ctx, s.history(task.ID, caller.ID, models.TaskActionCreate, "", task.Title))

	if _, err := s.stats.Recompute(ctx, projectID); err != nil {
		return nil, err
	}

	GetMetrics().TaskCreated()
	return task, nil
}

// Edit applies the fields that differ from the stored task. A request where
// nothing differs is rejected and leaves updated_at untouched.
func (s *TaskService) Edit(ctx context.Context, caller Actor, taskID string, in EditTaskInput) (*models.Task, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.projects.RequireParticipant(ctx, task.ProjectID, caller); err != nil {
		return nil, err
	}

	var changes []*models.TaskHistory
	change := func(field, oldValue, newValue string) {
		changes = append(changes, s.history(task.ID, caller.ID, "update_"+field, oldValue, newValue))
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, ValidationError("task title cannot be empty")
		}
		if title != task.Title {
			if _, err := s.stores.Tasks.GetByTitle(ctx, task.ProjectID, title); err == nil {
				return nil, ConflictError("task title already exists")
			} else if !errors.Is(err, database.ErrNotFound) {
				return nil, err
			}
			change("title", task.Title, title)
			task.Title = title
		}
	}
	if in.Description != nil {
		description := strings.TrimSpace(*in.Description)
		if description != task.Description {
			change("description", task.Description, description)
			task.Description = description
		}
	}
	if in.Priority != nil {
		priority := models.TaskPriority(*in.Priority)
		if !priority.Valid() {
			return nil, ValidationError("priority must be 0, 1 or 2")
		}
		if priority != task.Priority {
			change("priority", string(task.Priority), string(priority))
			task.Priority = priority
		}
	}
	if in.Deadline != nil {
		deadline, err := models.ParseOptionalDeadline(*in.Deadline)
		if err != nil {
			return nil, ValidationError("%s", err.Error())
		}
		if !models.SameDeadline(deadline, task.Deadline) {
			change("deadline", models.FormatDeadline(task.Deadline), models.FormatDeadline(deadline))
			task.Deadline = deadline
		}
	}
	if in.Status != nil {
		status := models.TaskStatus(*in.Status)
		if !status.Valid() {
			return nil, ValidationError("status must be 0, 1 or 2")
		}
		if status != task.Status {
			change("status", string(task.Status), string(status))
			task.Status = status
		}
	}

	if len(changes) == 0 {
		return nil, ConflictError("no changes detected")
	}

	task.UpdatedAt = s.now()
	if err := s.stores.Tasks.Update(ctx, task); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ConflictError("task title already exists")
		}
		return nil, err
	}
	s.recordHistory(ctx, changes...)

	if _, err := s.stats.Recompute(ctx, task.ProjectID); err != nil {
		return nil, err
	}

	GetMetrics().TaskEdited()
	return task, nil
}

// Delete removes a task that belongs to projectID
func (s *TaskService) Delete(ctx context.Context, caller Actor, projectID, taskID string) error {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return err
	}
	if task.ProjectID != projectID {
		return NotFoundError("task not found")
	}
	if _, err := s.projects.RequireParticipant(ctx, projectID, caller); err != nil {
		return err
	}

	if err := s.stores.Tasks.Delete(ctx, projectID, taskID); err != nil {
		return notFound(err, "task not found")
	}
	s.recordHistory(ctx, s.history(taskID, caller.ID, models.TaskActionDelete, task.Title, ""))

	if _, err := s.stats.Recompute(ctx, projectID); err != nil {
		return err
	}

	s.logger.Info("task deleted", "task_id", taskID, "project_id", projectID, "actor_id", caller.ID)
	return nil
}

// AddAssignees appends users not yet assigned. A batch made only of users
// already on the task is rejected as already added.
func (s *TaskService) AddAssignees(ctx context.Context, caller Actor, taskID string, userIDs []string) (*models.Task, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.projects.RequireParticipant(ctx, task.ProjectID, caller); err != nil {
		return nil, err
	}

	ids := dedupe(userIDs)
	if len(ids) == 0 {
		return nil, ValidationError("user_ids cannot be empty")
	}

	var fresh []string
	for _, id := range ids {
		if !task.HasAssignee(id) {
			fresh = append(fresh, id)
		}
	}
	if len(fresh) == 0 {
		return nil, ConflictError("already added")
	}

	invalid, err := s.invalidUsers(ctx, fresh)
	if err != nil {
		return nil, err
	}
	if len(invalid) > 0 {
		return nil, ValidationError("invalid assignees").WithDetail("invalid_ids", invalid)
	}

	task.Assignees = append(task.Assignees, fresh...)
	task.UpdatedAt = s.now()
	if err := s.stores.Tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	s.recordHistory(ctx, s.history(task.ID, caller.ID, models.TaskActionAddAssignees, "", strings.Join(fresh, ",")))

	return task, nil
}

// ListByProject returns the tasks of an existing project
func (s *TaskService) ListByProject(ctx context.Context, projectID string) ([]*models.Task, error) {
	if _, err := s.projects.load(ctx, projectID); err != nil {
		return nil, err
	}
	return s.stores.Tasks.ListByProject(ctx, projectID)
}

// ListCreated returns tasks created by a user
func (s *TaskService) ListCreated(ctx context.Context, userID string) ([]*models.Task, error) {
	return s.stores.Tasks.ListByCreator(ctx, userID)
}

// ListAssigned returns tasks assigned to a user
func (s *TaskService) ListAssigned(ctx context.Context, userID string) ([]*models.Task, error) {
	return s.stores.Tasks.ListByAssignee(ctx, userID)
}

// Assignees resolves a task's assignee ids to users
func (s *TaskService) Assignees(ctx context.Context, taskID string) ([]models.UserResponse, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	users, err := s.stores.Users.ListByIDs(ctx, task.Assignees)
	if err != nil {
		return nil, err
	}
	return models.UsersToResponse(users), nil
}

// History returns the audit trail of a task, newest first
func (s *TaskService) History(ctx context.Context, taskID string) ([]*models.TaskHistory, error) {
	if _, err := s.loadTask(ctx, taskID); err != nil {
		return nil, err
	}
	return s.stores.TaskHistory.ListByTask(ctx, taskID)
}
