package models

import (
	"time"
)

// TaskStatus is the progress of a task. Wire values are "0", "1" and "2".
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "0"
	TaskStatusInProgress TaskStatus = "1"
	TaskStatusCompleted  TaskStatus = "2"
)

// Valid reports whether s is one of the three known statuses
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// Label returns the human readable name of the status
func (s TaskStatus) Label() string {
	switch s {
	case TaskStatusTodo:
		return "to-do"
	case TaskStatusInProgress:
		return "in-progress"
	case TaskStatusCompleted:
		return "completed"
	}
	return "unknown"
}

// TaskPriority is the urgency of a task. Wire values are "0", "1" and "2".
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "0"
	TaskPriorityMedium TaskPriority = "1"
	TaskPriorityHigh   TaskPriority = "2"
)

// Valid reports whether p is one of the three known priorities
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// Label returns the human readable name of the priority
func (p TaskPriority) Label() string {
	switch p {
	case TaskPriorityLow:
		return "low"
	case TaskPriorityMedium:
		return "medium"
	case TaskPriorityHigh:
		return "high"
	}
	return "unknown"
}

// Task is a unit of work inside a project
type Task struct {
	ID          string       `bson:"_id" json:"id"`
	ProjectID   string       `bson:"projectId" json:"project_id"`
	Title       string       `bson:"title" json:"title"`
	Description string       `bson:"description" json:"description"`
	Deadline    *time.Time   `bson:"deadline,omitempty" json:"deadline,omitempty"`
	Status      TaskStatus   `bson:"status" json:"status"`
	Priority    TaskPriority `bson:"priority" json:"priority"`
	CreatorID   string       `bson:"creatorId" json:"creator_id"` // user id
	Assignees   []string     `bson:"assignees" json:"assignees"`
	CreatedAt   time.Time    `bson:"createdAt" json:"created_at"`
	UpdatedAt   time.Time    `bson:"updatedAt" json:"updated_at"`
}

// IsOverdue reports whether the task is past its deadline and not completed
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Deadline != nil && t.Status != TaskStatusCompleted && t.Deadline.Before(now)
}

// HasAssignee reports whether userID is already assigned to the task
func (t *Task) HasAssignee(userID string) bool {
	for _, id := range t.Assignees {
		if id == userID {
			return true
		}
	}
	return false
}

// Task history actions
const (
	TaskActionCreate       = "create"
	TaskActionDelete       = "delete"
	TaskActionAddAssignees = "add_assignees"
)

// TaskHistory is an append-only audit row for a task
type TaskHistory struct {
	ID         string    `bson:"_id" json:"id"`
	TaskID     string    `bson:"taskId" json:"task_id"`
	UserID     string    `bson:"userId" json:"user_id"`
	Action     string    `bson:"action" json:"action"`
	OldValue   string    `bson:"oldValue,omitempty" json:"old_value,omitempty"`
	NewValue   string    `bson:"newValue,omitempty" json:"new_value,omitempty"`
	ActionTime time.Time `bson:"actionTime" json:"action_time"`
}

// TaskCounts is the raw aggregate used to build a ProjectStatistic
type TaskCounts struct {
	Total     int
	Completed int
	Overdue   int
}
