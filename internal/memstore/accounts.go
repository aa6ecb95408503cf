package memstore

import (
	"context"

	"collabhub/internal/database"
	"collabhub/internal/models"
)

// UserStore implements services.UserStore
type UserStore struct {
	db *DB
}

func (s *UserStore) emailTaken(email, exceptID string) bool {
	for _, u := range s.db.users.rows {
		if u.Email == email && u.ID != exceptID {
			return true
		}
	}
	return false
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.users.get(user.ID); ok || s.emailTaken(user.Email, "") {
		return database.ErrDuplicate
	}
	s.db.users.put(user.ID, clone(user))
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	u, ok := s.db.users.get(id)
	if !ok {
		return nil, database.ErrNotFound
	}
	return clone(u), nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	rows := s.db.users.filter(func(u *models.User) bool { return u.Email == email })
	if len(rows) == 0 {
		return nil, database.ErrNotFound
	}
	return clone(rows[0]), nil
}

func (s *UserStore) ListByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	set := idSet(ids)
	return cloneAll(s.db.users.filter(func(u *models.User) bool { return set[u.ID] })), nil
}

func (s *UserStore) ListByStates(ctx context.Context, states ...models.UserState) ([]*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return cloneAll(s.db.users.filter(func(u *models.User) bool {
		for _, st := range states {
			if u.State == st {
				return true
			}
		}
		return false
	})), nil
}

func (s *UserStore) Update(ctx context.Context, user *models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.users.get(user.ID); !ok {
		return database.ErrNotFound
	}
	if s.emailTaken(user.Email, user.ID) {
		return database.ErrDuplicate
	}
	s.db.users.put(user.ID, clone(user))
	return nil
}

func (s *UserStore) Delete(ctx context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if !s.db.users.remove(id) {
		return database.ErrNotFound
	}
	return nil
}

// AdminStore implements services.AdminStore
type AdminStore struct {
	db *DB
}

func (s *AdminStore) emailTaken(email, exceptID string) bool {
	for _, a := range s.db.admins.rows {
		if a.Email == email && a.ID != exceptID {
			return true
		}
	}
	return false
}

func (s *AdminStore) Create(ctx context.Context, admin *models.Admin) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.admins.get(admin.ID); ok || s.emailTaken(admin.Email, "") {
		return database.ErrDuplicate
	}
	s.db.admins.put(admin.ID, clone(admin))
	return nil
}

func (s *AdminStore) GetByID(ctx context.Context, id string) (*models.Admin, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	a, ok := s.db.admins.get(id)
	if !ok {
		return nil, database.ErrNotFound
	}
	return clone(a), nil
}

func (s *AdminStore) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	rows := s.db.admins.filter(func(a *models.Admin) bool { return a.Email == email })
	if len(rows) == 0 {
		return nil, database.ErrNotFound
	}
	return clone(rows[0]), nil
}

func (s *AdminStore) Update(ctx context.Context, admin *models.Admin) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.admins.get(admin.ID); !ok {
		return database.ErrNotFound
	}
	if s.emailTaken(admin.Email, admin.ID) {
		return database.ErrDuplicate
	}
	s.db.admins.put(admin.ID, clone(admin))
	return nil
}

func (s *AdminStore) Delete(ctx context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if !s.db.admins.remove(id) {
		return database.ErrNotFound
	}
	return nil
}

func (s *AdminStore) Count(ctx context.Context) (int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return int64(s.db.admins.count()), nil
}
