package services

import (
	"context"
	"time"

	"collabhub/internal/models"
)

// Store contracts. Implementations return database.ErrNotFound for missing
// documents and database.ErrDuplicate when a unique constraint would break.

// UserStore persists regular accounts
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	ListByStates(ctx context.Context, states ...models.UserState) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

// AdminStore persists admin accounts
type AdminStore interface {
	Create(ctx context.Context, admin *models.Admin) error
	GetByID(ctx context.Context, id string) (*models.Admin, error)
	GetByEmail(ctx context.Context, email string) (*models.Admin, error)
	Update(ctx context.Context, admin *models.Admin) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// ProjectStore persists projects
type ProjectStore interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id string) (*models.Project, error)
	GetByName(ctx context.Context, name string) (*models.Project, error)
	ListByCreator(ctx context.Context, creatorEmail string) ([]*models.Project, error)
	ListByIDs(ctx context.Context, ids []string) ([]*models.Project, error)
	ListByStatus(ctx context.Context, status models.ProjectStatus) ([]*models.Project, error)
	ListAll(ctx context.Context) ([]*models.Project, error)
	Update(ctx context.Context, project *models.Project) error
}

// ApprovalStore persists admin decisions on projects
type ApprovalStore interface {
	Create(ctx context.Context, approval *models.ProjectApproval) error
	// ListByProject returns decisions newest first
	ListByProject(ctx context.Context, projectID string) ([]*models.ProjectApproval, error)
}

// MembershipStore persists ProjectUser rows
type MembershipStore interface {
	Add(ctx context.Context, member *models.ProjectUser) error
	Exists(ctx context.Context, projectID, userID string) (bool, error)
	ListByProject(ctx context.Context, projectID string) ([]*models.ProjectUser, error)
	ListByUser(ctx context.Context, userID string) ([]*models.ProjectUser, error)
}

// TagStore persists project tags
type TagStore interface {
	AddMany(ctx context.Context, tags []*models.ProjectTag) error
	ListByProject(ctx context.Context, projectID string) ([]*models.ProjectTag, error)
	// NamesByProjects maps project id to tag names
	NamesByProjects(ctx context.Context, projectIDs []string) (map[string][]string, error)
}

// TaskStore persists tasks
type TaskStore interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id string) (*models.Task, error)
	GetByTitle(ctx context.Context, projectID, title string) (*models.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]*models.Task, error)
	ListByCreator(ctx context.Context, userID string) ([]*models.Task, error)
	ListByAssignee(ctx context.Context, userID string) ([]*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	// Delete removes the task only when it belongs to projectID
	Delete(ctx context.Context, projectID, taskID string) error
	CountByProject(ctx context.Context, projectID string, now time.Time) (models.TaskCounts, error)
}

// TaskHistoryStore persists the task audit trail
type TaskHistoryStore interface {
	Append(ctx context.Context, entries ...*models.TaskHistory) error
	ListByTask(ctx context.Context, taskID string) ([]*models.TaskHistory, error)
}

// CommentStore persists project comments
type CommentStore interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListByProject(ctx context.Context, projectID string) ([]*models.Comment, error)
}

// StatisticStore persists derived project statistics
type StatisticStore interface {
	Get(ctx context.Context, projectID string) (*models.ProjectStatistic, error)
	// Upsert replaces the row for stat.ProjectID
	Upsert(ctx context.Context, stat *models.ProjectStatistic) error
	ListProjectIDs(ctx context.Context) ([]string, error)
}

// NotificationStore persists unread counters
type NotificationStore interface {
	// Increment adds one unread message for every user in userIDs
	Increment(ctx context.Context, projectID string, userIDs []string) error
	Get(ctx context.Context, userID, projectID string) (*models.Notification, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Notification, error)
	Reset(ctx context.Context, userID, projectID string) error
}

// Transactor runs a unit of work atomically when the backend supports it
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Stores bundles every store the services depend on
type Stores struct {
	Users         UserStore
	Admins        AdminStore
	Projects      ProjectStore
	Approvals     ApprovalStore
	Memberships   MembershipStore
	Tags          TagStore
	Tasks         TaskStore
	TaskHistory   TaskHistoryStore
	Comments      CommentStore
	Statistics    StatisticStore
	Notifications NotificationStore
	Tx            Transactor
}
