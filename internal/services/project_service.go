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

// ProjectService drives the project lifecycle: creation, membership, tags,
// and the admin approval and archive workflow.
type ProjectService struct {
	stores *Stores
	logger *slog.Logger
	now    func() time.Time
}

// NewProjectService creates a new project service
func NewProjectService(stores *Stores) *ProjectService {
	return &ProjectService{
		stores: stores,
		logger: logging.Component("projects"),
		now:    time.Now,
	}
}

// CreateProjectInput is the payload for a new project
type CreateProjectInput struct {
	Name        string
	Description string
	Deadline    string
	Tags        []string
}

// UpdateProjectInput carries only the fields the caller sent
type UpdateProjectInput struct {
	ProjectID   string
	Name        *string
	Description *string
	Deadline    *string
	Tags        []string
}

// MemberError is one rejected id in a batch member add
type MemberError struct {
	UserID string `json:"user_id"`
	Error  string `json:"error"`
}

// AddMembersResult reports the outcome of a batch member add
type AddMembersResult struct {
	Added  []string      `json:"added"`
	Errors []MemberError `json:"errors"`
}

// notFound converts a store miss into a KindNotFound error
func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, database.ErrNotFound) {
		return NotFoundError(format, args...)
	}
	return err
}

// cleanTags trims, drops empties and de-duplicates while keeping order
func cleanTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func (s *ProjectService) newTags(projectID string, names []string) []*models.ProjectTag {
	now := s.now()
	tags := make([]*models.ProjectTag, 0, len(names))
	for _, name := range names {
		tags = append(tags, &models.ProjectTag{
			ID:        uuid.NewString(),
			ProjectID: projectID,
			TagName:   name,
			TaggedAt:  now,
		})
	}
	return tags
}

// withTags joins tag names into project responses
func (s *ProjectService) withTags(ctx context.Context, projects []*models.Project) ([]*models.ProjectResponse, error) {
	ids := make([]string, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	names, err := s.stores.Tags.NamesByProjects(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*models.ProjectResponse, 0, len(projects))
	for _, p := range projects {
		tags := names[p.ID]
		if tags == nil {
			tags = []string{}
		}
		out = append(out, &models.ProjectResponse{Project: p, Tags: tags})
	}
	return out, nil
}

func (s *ProjectService) one(ctx context.Context, project *models.Project) (*models.ProjectResponse, error) {
	out, err := s.withTags(ctx, []*models.Project{project})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// load fetches a project or returns KindNotFound
func (s *ProjectService) load(ctx context.Context, projectID string) (*models.Project, error) {
	project, err := s.stores.Projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, notFound(err, "project not found")
	}
	return project, nil
}

// IsParticipant reports whether actor may act inside the project: admins
// always, users when they created it or were added as members.
func (s *ProjectService) IsParticipant(ctx context.Context, project *models.Project, actor Actor) (bool, error) {
	if actor.IsAdmin() {
		return true, nil
	}
	if project.CreatorID == actor.Email {
		return true, nil
	}
	return s.stores.Memberships.Exists(ctx, project.ID, actor.ID)
}

// RequireParticipant loads a project and checks participation
func (s *ProjectService) RequireParticipant(ctx context.Context, projectID string, actor Actor) (*models.Project, error) {
	project, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	ok, err := s.IsParticipant(ctx, project, actor)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ForbiddenError("not a member of this project")
	}
	return project, nil
}

// Participants returns the user ids of every member plus the creator
func (s *ProjectService) Participants(ctx context.Context, project *models.Project) ([]string, error) {
	members, err := s.stores.Memberships.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(members)+1)
	ids := make([]string, 0, len(members)+1)
	for _, m := range members {
		if !seen[m.UserID] {
			seen[m.UserID] = true
			ids = append(ids, m.UserID)
		}
	}

	creator, err := s.stores.Users.GetByEmail(ctx, project.CreatorID)
	switch {
	case err == nil:
		if !seen[creator.ID] {
			ids = append(ids, creator.ID)
		}
	case errors.Is(err, database.ErrNotFound):
		// creator migrated to admin or removed
	default:
		return nil, err
	}
	return ids, nil
}

// Create persists a new unapproved project and its tags
func (s *ProjectService) Create(ctx context.Context, creator Actor, in CreateProjectInput) (*models.ProjectResponse, error) {
	name := strings.TrimSpace(in.Name)
	description := strings.TrimSpace(in.Description)
	if name == "" {
		return nil, ValidationError("project name is required")
	}
	if description == "" {
		return nil, ValidationError("project description is required")
	}
	deadline, err := models.ParseOptionalDeadline(in.Deadline)
	if err != nil {
		return nil, ValidationError("%s", err.Error())
	}

	if _, err := s.stores.Projects.GetByName(ctx, name); err == nil {
		return nil, ConflictError("project name already exists")
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	project := &models.Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Deadline:    deadline,
		CreatorID:   creator.Email,
		IsApproved:  false,
		Status:      models.ProjectStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tags := cleanTags(in.Tags)
	err = s.stores.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.stores.Projects.Create(ctx, project); err != nil {
			return err
		}
		return s.stores.Tags.AddMany(ctx, s.newTags(project.ID, tags))
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ConflictError("project name already exists")
		}
		return nil, err
	}

	GetMetrics().ProjectCreated()
	s.logger.Info("project created", "project_id", project.ID, "creator", creator.Email)
	return &models.ProjectResponse{Project: project, Tags: tags}, nil
}

// Update applies the provided fields; only the creator may update
func (s *ProjectService) Update(ctx context.Context, caller Actor, in UpdateProjectInput) (*models.ProjectResponse, error) {
	project, err := s.load(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.CreatorID != caller.Email {
		return nil, ForbiddenError("only the project creator can update it")
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, ValidationError("project name cannot be empty")
		}
		if name != project.Name {
			if _, err := s.stores.Projects.GetByName(ctx, name); err == nil {
				return nil, ConflictError("project name already exists")
			} else if !errors.Is(err, database.ErrNotFound) {
				return nil, err
			}
			project.Name = name
		}
	}
	if in.Description != nil {
		description := strings.TrimSpace(*in.Description)
		if description == "" {
			return nil, ValidationError("project description cannot be empty")
		}
		project.Description = description
	}
	if in.Deadline != nil {
		deadline, err := models.ParseOptionalDeadline(*in.Deadline)
		if err != nil {
			return nil, ValidationError("%s", err.Error())
		}
		project.Deadline = deadline
	}

	tags := cleanTags(in.Tags)
	if len(tags) > 0 {
		existing, err := s.stores.Tags.ListByProject(ctx, project.ID)
		if err != nil {
			return nil, err
		}
		for _, t := range existing {
			for _, name := range tags {
				if t.TagName == name {
					return nil, ConflictError("tag %q already exists", name).WithDetail("tag", name)
				}
			}
		}
	}

	project.UpdatedAt = s.now()
	err = s.stores.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.stores.Projects.Update(ctx, project); err != nil {
			return err
		}
		return s.stores.Tags.AddMany(ctx, s.newTags(project.ID, tags))
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ConflictError("project name or tag already exists")
		}
		return nil, err
	}

	return s.one(ctx, project)
}

// AddMembers adds users one by one, collecting per-id failures
func (s *ProjectService) AddMembers(ctx context.Context, caller Actor, projectID string, userIDs []string) (*AddMembersResult, error) {
	project, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.CreatorID != caller.Email {
		return nil, ForbiddenError("only the project creator can add members")
	}

	result := &AddMembersResult{Added: []string{}, Errors: []MemberError{}}
	for _, userID := range userIDs {
		user, err := s.stores.Users.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				result.Errors = append(result.Errors, MemberError{UserID: userID, Error: "user not found"})
				continue
			}
			return nil, err
		}
		if user.Email == project.CreatorID {
			result.Errors = append(result.Errors, MemberError{UserID: userID, Error: "creator is already part of the project"})
			continue
		}

		exists, err := s.stores.Memberships.Exists(ctx, projectID, userID)
		if err != nil {
			return nil, err
		}
		if exists {
			result.Errors = append(result.Errors, MemberError{UserID: userID, Error: "already added"})
			continue
		}

		err = s.stores.Memberships.Add(ctx, &models.ProjectUser{
			ID:        uuid.NewString(),
			ProjectID: projectID,
			UserID:    userID,
			JoinedAt:  s.now(),
		})
		if err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				result.Errors = append(result.Errors, MemberError{UserID: userID, Error: "already added"})
				continue
			}
			return nil, err
		}
		result.Added = append(result.Added, userID)
	}

	s.logger.Info("project members added", "project_id", projectID, "added", len(result.Added), "rejected", len(result.Errors))
	return result, nil
}

// ListMine returns the caller's own non-archived projects
func (s *ProjectService) ListMine(ctx context.Context, caller Actor) ([]*models.ProjectResponse, error) {
	projects, err := s.stores.Projects.ListByCreator(ctx, caller.Email)
	if err != nil {
		return nil, err
	}
	return s.withTags(ctx, projects)
}

// ListAssigned returns non-archived projects the caller is a member of
func (s *ProjectService) ListAssigned(ctx context.Context, caller Actor) ([]*models.ProjectResponse, error) {
	memberships, err := s.stores.Memberships.ListByUser(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(memberships))
	for i, m := range memberships {
		ids[i] = m.ProjectID
	}
	projects, err := s.stores.Projects.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.withTags(ctx, projects)
}

// ListMembers joins memberships with user identities
func (s *ProjectService) ListMembers(ctx context.Context, projectID string) ([]models.ProjectMember, error) {
	if _, err := s.load(ctx, projectID); err != nil {
		return nil, err
	}

	memberships, err := s.stores.Memberships.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(memberships))
	for i, m := range memberships {
		ids[i] = m.UserID
	}
	users, err := s.stores.Users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	members := make([]models.ProjectMember, 0, len(memberships))
	for _, m := range memberships {
		u, ok := byID[m.UserID]
		if !ok {
			continue
		}
		members = append(members, models.ProjectMember{
			UserID:   u.ID,
			Name:     u.Name,
			Email:    u.Email,
			JoinedAt: m.JoinedAt,
		})
	}
	return members, nil
}

// Get returns one project for a participant
func (s *ProjectService) Get(ctx context.Context, caller Actor, projectID string) (*models.ProjectResponse, error) {
	project, err := s.RequireParticipant(ctx, projectID, caller)
	if err != nil {
		return nil, err
	}
	return s.one(ctx, project)
}

// Statistics returns the stored rollup, zeroed when no task exists yet
func (s *ProjectService) Statistics(ctx context.Context, projectID string) (*models.ProjectStatistic, error) {
	if _, err := s.load(ctx, projectID); err != nil {
		return nil, err
	}
	stat, err := s.stores.Statistics.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return &models.ProjectStatistic{ProjectID: projectID}, nil
		}
		return nil, err
	}
	return stat, nil
}

// Approve records an admin decision and mirrors it onto the project.
// A project that is already approved cannot be decided again.
func (s *ProjectService) Approve(ctx context.Context, adminID, projectID string, status models.ApprovalStatus) (*models.ProjectApproval, error) {
	if status != models.ApprovalApproved && status != models.ApprovalRejected {
		return nil, ValidationError("status must be approved or rejected")
	}

	project, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.IsApproved {
		return nil, ConflictError("project already approved")
	}

	approval := &models.ProjectApproval{
		ID:           uuid.NewString(),
		ProjectID:    projectID,
		AdminID:      adminID,
		Status:       status,
		ApprovalDate: s.now(),
	}

	err = s.stores.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.stores.Approvals.Create(ctx, approval); err != nil {
			return err
		}
		project.IsApproved = status == models.ApprovalApproved
		project.UpdatedAt = approval.ApprovalDate
		return s.stores.Projects.Update(ctx, project)
	})
	if err != nil {
		return nil, err
	}

	GetMetrics().ApprovalDecision(string(status))
	s.logger.Info("project decision recorded", "project_id", projectID, "admin_id", adminID, "status", status)
	return approval, nil
}

// Approvals lists the decisions for a project, newest first
func (s *ProjectService) Approvals(ctx context.Context, projectID string) ([]*models.ProjectApproval, error) {
	if _, err := s.load(ctx, projectID); err != nil {
		return nil, err
	}
	return s.stores.Approvals.ListByProject(ctx, projectID)
}

// Archive hides a project from the normal listings
func (s *ProjectService) Archive(ctx context.Context, adminID, projectID string) (*models.ProjectResponse, error) {
	project, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.IsArchived() {
		return nil, ConflictError("project already archived")
	}

	project.Status = models.ProjectStatusArchived
	project.UpdatedAt = s.now()
	if err := s.stores.Projects.Update(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("project archived", "project_id", projectID, "admin_id", adminID)
	return s.one(ctx, project)
}

// ListAll returns every project with tags
func (s *ProjectService) ListAll(ctx context.Context) ([]*models.ProjectResponse, error) {
	projects, err := s.stores.Projects.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.withTags(ctx, projects)
}

// ListArchived returns archived projects with tags
func (s *ProjectService) ListArchived(ctx context.Context) ([]*models.ProjectResponse, error) {
	projects, err := s.stores.Projects.ListByStatus(ctx, models.ProjectStatusArchived)
	if err != nil {
		return nil, err
	}
	return s.withTags(ctx, projects)
}
