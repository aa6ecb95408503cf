package services_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"collabhub/internal/memstore"
	"collabhub/internal/models"
	"collabhub/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events map[string][]*models.NotificationEvent
}

func (n *recordingNotifier) Notify(_ context.Context, userID string, event *models.NotificationEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.events == nil {
		n.events = make(map[string][]*models.NotificationEvent)
	}
	n.events[userID] = append(n.events[userID], event)
}

func (n *recordingNotifier) For(userID string) []*models.NotificationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.events[userID]
}

type fixture struct {
	stores        *services.Stores
	identity      *services.IdentityService
	projects      *services.ProjectService
	stats         *services.StatisticsService
	tasks         *services.TaskService
	notifications *services.NotificationService
	comments      *services.CommentService
	admin         *services.AdminService
	notifier      *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	stores := memstore.New()
	notifier := &recordingNotifier{}
	identity := services.NewIdentityService(stores.Users, stores.Admins, time.Minute)
	projects := services.NewProjectService(stores)
	stats := services.NewStatisticsService(stores)
	notifications := services.NewNotificationService(stores, projects, notifier)

	return &fixture{
		stores:        stores,
		identity:      identity,
		projects:      projects,
		stats:         stats,
		tasks:         services.NewTaskService(stores, projects, stats),
		notifications: notifications,
		comments:      services.NewCommentService(stores, projects, notifications, 1024),
		admin:         services.NewAdminService(stores, identity),
		notifier:      notifier,
	}
}

// seedUser stores a user directly, skipping password hashing
func (f *fixture) seedUser(t *testing.T, name string, state models.UserState) services.Actor {
	t.Helper()

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        strings.ToLower(name) + "@example.com",
		PasswordHash: "argon2id$unused$unused",
		State:        state,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, f.stores.Users.Create(context.Background(), user))
	return services.Actor{ID: user.ID, Email: user.Email, Role: models.RoleUser}
}

func (f *fixture) user(t *testing.T, name string) services.Actor {
	return f.seedUser(t, name, models.UserStateVerified)
}

func (f *fixture) adminActor(t *testing.T, name string) services.Actor {
	t.Helper()

	admin := &models.Admin{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        strings.ToLower(name) + "@example.com",
		PasswordHash: "argon2id$unused$unused",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, f.stores.Admins.Create(context.Background(), admin))
	return services.Actor{ID: admin.ID, Email: admin.Email, Role: models.RoleAdmin}
}

func (f *fixture) project(t *testing.T, owner services.Actor, name string) *models.ProjectResponse {
	t.Helper()

	project, err := f.projects.Create(context.Background(), owner, services.CreateProjectInput{
		Name:        name,
		Description: name + " description",
	})
	require.NoError(t, err)
	return project
}

func (f *fixture) approvedProject(t *testing.T, owner services.Actor, name string) *models.ProjectResponse {
	t.Helper()

	project := f.project(t, owner, name)
	_, err := f.projects.Approve(context.Background(), "admin-1", project.ID, models.ApprovalApproved)
	require.NoError(t, err)
	project.IsApproved = true
	return project
}

func (f *fixture) addMember(t *testing.T, owner services.Actor, projectID string, member services.Actor) {
	t.Helper()

	result, err := f.projects.AddMembers(context.Background(), owner, projectID, []string{member.ID})
	require.NoError(t, err)
	require.Equal(t, []string{member.ID}, result.Added)
}

func ptr(s string) *string {
	return &s
}

func requireKind(t *testing.T, err error, kind services.ErrorKind) *services.Error {
	t.Helper()

	require.Error(t, err)
	svcErr, ok := services.AsError(err)
	require.True(t, ok, "expected business error, got %v", err)
	require.Equal(t, kind, svcErr.Kind, "message: %s", svcErr.Message)
	return svcErr
}
