package memstore

import (
	"context"

	"collabhub/internal/database"
	"collabhub/internal/models"
)

// ProjectStore implements services.ProjectStore. Listings are newest first.
type ProjectStore struct {
	db *DB
}

func (s *ProjectStore) nameTaken(name, exceptID string) bool {
	for _, p := range s.db.projects.rows {
		if p.Name == name && p.ID != exceptID {
			return true
		}
	}
	return false
}

func (s *ProjectStore) list(keep func(*models.Project) bool) []*models.Project {
	return reversed(cloneAll(s.db.projects.filter(keep)))
}

func (s *ProjectStore) Create(ctx context.Context, project *models.Project) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.projects.get(project.ID); ok || s.nameTaken(project.Name, "") {
		return database.ErrDuplicate
	}
	s.db.projects.put(project.ID, clone(project))
	return nil
}

func (s *ProjectStore) GetByID(ctx context.Context, id string) (*models.Project, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	p, ok := s.db.projects.get(id)
	if !ok {
		return nil, database.ErrNotFound
	}
	return clone(p), nil
}

func (s *ProjectStore) GetByName(ctx context.Context, name string) (*models.Project, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	rows := s.db.projects.filter(func(p *models.Project) bool { return p.Name == name })
	if len(rows) == 0 {
		return nil, database.ErrNotFound
	}
	return clone(rows[0]), nil
}

func (s *ProjectStore) ListByCreator(ctx context.Context, creatorEmail string) ([]*models.Project, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return s.list(func(p *models.Project) bool {
		return p.CreatorID == creatorEmail && !p.IsArchived()
	}), nil
}

func (s *ProjectStore) ListByIDs(ctx context.Context, ids []string) ([]*models.Project, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	set := idSet(ids)
	return s.list(func(p *models.Project) bool {
		return set[p.ID] && !p.IsArchived()
	}), nil
}

func (s *ProjectStore) ListByStatus(ctx context.Context, status models.ProjectStatus) ([]*models.Project, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return s.list(func(p *models.Project) bool { return p.Status == status }), nil
}

func (s *ProjectStore) ListAll(ctx context.Context) ([]*models.Project, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return s.list(func(*models.Project) bool { return true }), nil
}

func (s *ProjectStore) Update(ctx context.Context, project *models.Project) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.projects.get(project.ID); !ok {
		return database.ErrNotFound
	}
	if s.nameTaken(project.Name, project.ID) {
		return database.ErrDuplicate
	}
	s.db.projects.put(project.ID, clone(project))
	return nil
}

// ApprovalStore implements services.ApprovalStore
type ApprovalStore struct {
	db *DB
}

func (s *ApprovalStore) Create(ctx context.Context, approval *models.ProjectApproval) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.approvals.get(approval.ID); ok {
		return database.ErrDuplicate
	}
	s.db.approvals.put(approval.ID, clone(approval))
	return nil
}

func (s *ApprovalStore) ListByProject(ctx context.Context, projectID string) ([]*models.ProjectApproval, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return reversed(cloneAll(s.db.approvals.filter(func(a *models.ProjectApproval) bool {
		return a.ProjectID == projectID
	}))), nil
}

// MembershipStore implements services.MembershipStore
type MembershipStore struct {
	db *DB
}

func (s *MembershipStore) exists(projectID, userID string) bool {
	for _, m := range s.db.memberships.rows {
		if m.ProjectID == projectID && m.UserID == userID {
			return true
		}
	}
	return false
}

func (s *MembershipStore) Add(ctx context.Context, member *models.ProjectUser) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if s.exists(member.ProjectID, member.UserID) {
		return database.ErrDuplicate
	}
	s.db.memberships.put(member.ID, clone(member))
	return nil
}

func (s *MembershipStore) Exists(ctx context.Context, projectID, userID string) (bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return s.exists(projectID, userID), nil
}

func (s *MembershipStore) ListByProject(ctx context.Context, projectID string) ([]*models.ProjectUser, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return cloneAll(s.db.memberships.filter(func(m *models.ProjectUser) bool {
		return m.ProjectID == projectID
	})), nil
}

func (s *MembershipStore) ListByUser(ctx context.Context, userID string) ([]*models.ProjectUser, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return cloneAll(s.db.memberships.filter(func(m *models.ProjectUser) bool {
		return m.UserID == userID
	})), nil
}

// TagStore implements services.TagStore
type TagStore struct {
	db *DB
}

// AddMany inserts tags in order and stops at the first duplicate, like an
// ordered InsertMany.
func (s *TagStore) AddMany(ctx context.Context, tags []*models.ProjectTag) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, t := range tags {
		for _, existing := range s.db.tags.rows {
			if existing.ProjectID == t.ProjectID && existing.TagName == t.TagName {
				return database.ErrDuplicate
			}
		}
		s.db.tags.put(t.ID, clone(t))
	}
	return nil
}

func (s *TagStore) ListByProject(ctx context.Context, projectID string) ([]*models.ProjectTag, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return cloneAll(s.db.tags.filter(func(t *models.ProjectTag) bool {
		return t.ProjectID == projectID
	})), nil
}

func (s *TagStore) NamesByProjects(ctx context.Context, projectIDs []string) (map[string][]string, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	set := idSet(projectIDs)
	out := make(map[string][]string, len(projectIDs))
	for _, t := range s.db.tags.filter(func(t *models.ProjectTag) bool { return set[t.ProjectID] }) {
		out[t.ProjectID] = append(out[t.ProjectID], t.TagName)
	}
	return out, nil
}
