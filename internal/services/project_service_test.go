package services_test

import (
	"context"
	"testing"

	"collabhub/internal/models"
	"collabhub/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "Owner")

	project, err := f.projects.Create(ctx, owner, services.CreateProjectInput{
		Name:        "  Apollo ",
		Description: "moon",
		Deadline:    "01/01/26",
		Tags:        []string{"go", " go ", "", "api"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Apollo", project.Name)
	assert.Equal(t, owner.Email, project.CreatorID)
	assert.False(t, project.IsApproved)
	assert.Equal(t, models.ProjectStatusActive, project.Status)
	assert.Equal(t, []string{"go", "api"}, project.Tags)
	require.NotNil(t, project.Deadline)
	assert.Equal(t, 2026, project.Deadline.Year())

	_, err = f.projects.Create(ctx, owner, services.CreateProjectInput{Name: "Apollo", Description: "again"})
	requireKind(t, err, services.KindConflict)

	_, err = f.projects.Create(ctx, owner, services.CreateProjectInput{Name: "Gemini"})
	requireKind(t, err, services.KindValidation)

	_, err = f.projects.Create(ctx, owner, services.CreateProjectInput{Name: "Gemini", Description: "x", Deadline: "31/02/26"})
	requireKind(t, err, services.KindValidation)
}

func TestProjectUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "Owner")
	other := f.user(t, "Other")
	project, err := f.projects.Create(ctx, owner, services.CreateProjectInput{
		Name: "Apollo", Description: "moon", Tags: []string{"go"},
	})
	require.NoError(t, err)
	f.project(t, owner, "Gemini")

	t.Run("only creator", func(t *testing.T) {
		_, err := f.projects.Update(ctx, other, services.UpdateProjectInput{ProjectID: project.ID, Description: ptr("x")})
		requireKind(t, err, services.KindForbidden)
	})

	t.Run("unknown project", func(t *testing.T) {
		_, err := f.projects.Update(ctx, owner, services.UpdateProjectInput{ProjectID: "missing"})
		requireKind(t, err, services.KindNotFound)
	})

	t.Run("existing tag", func(t *testing.T) {
		_, err := f.projects.Update(ctx, owner, services.UpdateProjectInput{ProjectID: project.ID, Tags: []string{"new", "go"}})
		svcErr := requireKind(t, err, services.KindConflict)
		assert.Equal(t, "go", svcErr.Details["tag"])
	})

	t.Run("rename to taken name", func(t *testing.T) {
		_, err := f.projects.Update(ctx, owner, services.UpdateProjectInput{ProjectID: project.ID, Name: ptr("Gemini")})
		requireKind(t, err, services.KindConflict)
	})

	t.Run("applies fields and tags", func(t *testing.T) {
		updated, err := f.projects.Update(ctx, owner, services.UpdateProjectInput{
			ProjectID:   project.ID,
			Description: ptr("to the moon"),
			Tags:        []string{"api"},
		})
		require.NoError(t, err)
		assert.Equal(t, "to the moon", updated.Description)
		assert.Equal(t, []string{"go", "api"}, updated.Tags)
		assert.False(t, updated.UpdatedAt.Before(project.UpdatedAt))
	})
}

func TestProjectAddMembers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "Owner")
	alice := f.user(t, "Alice")
	bob := f.user(t, "Bob")
	project := f.project(t, owner, "Apollo")

	_, err := f.projects.AddMembers(ctx, alice, project.ID, []string{bob.ID})
	requireKind(t, err, services.KindForbidden)

	result, err := f.projects.AddMembers(ctx, owner, project.ID, []string{alice.ID, "ghost", owner.ID, alice.ID, bob.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID, bob.ID}, result.Added)
	assert.Equal(t, []services.MemberError{
		{UserID: "ghost", Error: "user not found"},
		{UserID: owner.ID, Error: "creator is already part of the project"},
		{UserID: alice.ID, Error: "already added"},
	}, result.Errors)

	members, err := f.projects.ListMembers(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, alice.Email, members[0].Email)

	_, err = f.projects.ListMembers(ctx, "missing")
	requireKind(t, err, services.KindNotFound)

	assigned, err := f.projects.ListAssigned(ctx, alice)
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, project.ID, assigned[0].ID)
}

func TestProjectGetRequiresParticipation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "Owner")
	outsider := f.user(t, "Outsider")
	admin := f.adminActor(t, "Root")
	project := f.project(t, owner, "Apollo")

	_, err := f.projects.Get(ctx, outsider, project.ID)
	requireKind(t, err, services.KindForbidden)

	got, err := f.projects.Get(ctx, admin, project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.ID, got.ID)

	_, err = f.projects.Get(ctx, owner, project.ID)
	require.NoError(t, err)
}

func TestProjectApprove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "Owner")
	project := f.project(t, owner, "Apollo")

	_, err := f.projects.Approve(ctx, "admin-1", project.ID, "maybe")
	requireKind(t, err, services.KindValidation)

	_, err = f.projects.Approve(ctx, "admin-1", "missing", models.ApprovalApproved)
	requireKind(t, err, services.KindNotFound)

	_, err = f.projects.Approve(ctx, "admin-1", project.ID, models.ApprovalRejected)
	require.NoError(t, err)

	approval, err := f.projects.Approve(ctx, "admin-1", project.ID, models.ApprovalApproved)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, approval.Status)

	_, err = f.projects.Approve(ctx, "admin-1", project.ID, models.ApprovalApproved)
	svcErr := requireKind(t, err, services.KindConflict)
	assert.Equal(t, "project already approved", svcErr.Message)

	approvals, err := f.projects.Approvals(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, approvals, 2)
	assert.Equal(t, models.ApprovalApproved, approvals[0].Status, "newest first")

	stored, err := f.stores.Projects.GetByID(ctx, project.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsApproved)
}

func TestProjectArchive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "Owner")
	member := f.user(t, "Member")
	project := f.project(t, owner, "Apollo")
	f.project(t, owner, "Gemini")
	f.addMember(t, owner, project.ID, member)

	archived, err := f.projects.Archive(ctx, "admin-1", project.ID)
	require.NoError(t, err)
	assert.True(t, archived.IsArchived())

	_, err = f.projects.Archive(ctx, "admin-1", project.ID)
	requireKind(t, err, services.KindConflict)

	_, err = f.projects.Archive(ctx, "admin-1", "missing")
	requireKind(t, err, services.KindNotFound)

	mine, err := f.projects.ListMine(ctx, owner)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Gemini", mine[0].Name)

	assigned, err := f.projects.ListAssigned(ctx, member)
	require.NoError(t, err)
	assert.Empty(t, assigned)

	list, err := f.projects.ListArchived(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, project.ID, list[0].ID)

	all, err := f.projects.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestProjectStatisticsZeroWhenAbsent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "Owner")
	project := f.project(t, owner, "Apollo")

	stat, err := f.projects.Statistics(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.ID, stat.ProjectID)
	assert.Zero(t, stat.TotalTasks)

	_, err = f.projects.Statistics(ctx, "missing")
	requireKind(t, err, services.KindNotFound)
}
