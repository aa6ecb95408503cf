package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"collabhub/internal/database"
	"collabhub/internal/models"

	"github.com/patrickmn/go-cache"
)

// Actor is the authenticated caller of an operation
type Actor struct {
	ID    string
	Email string
	Role  string
}

// IsAdmin reports whether the caller authenticated as an admin
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// IdentityService resolves credential emails to accounts. Lookups are cached
// briefly because every authenticated request performs one.
type IdentityService struct {
	users  UserStore
	admins AdminStore
	cache  *cache.Cache
}

// NewIdentityService creates an identity resolver with the given cache TTL.
// A zero TTL disables caching.
func NewIdentityService(users UserStore, admins AdminStore, ttl time.Duration) *IdentityService {
	s := &IdentityService{users: users, admins: admins}
	if ttl > 0 {
		s.cache = cache.New(ttl, 2*ttl)
	}
	return s
}

func userKey(email string) string  { return "user:" + email }
func adminKey(email string) string { return "admin:" + email }

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ResolveUser returns the user for an email or a KindUnauthorized error
func (s *IdentityService) ResolveUser(ctx context.Context, email string) (*models.User, error) {
	email = NormalizeEmail(email)
	if s.cache != nil {
		if v, ok := s.cache.Get(userKey(email)); ok {
			u := *v.(*models.User)
			return &u, nil
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, UnauthorizedError("user not found")
		}
		return nil, err
	}

	if s.cache != nil {
		cached := *user
		s.cache.SetDefault(userKey(email), &cached)
	}
	return user, nil
}

// ResolveAdmin returns the admin for an email or a KindUnauthorized error
func (s *IdentityService) ResolveAdmin(ctx context.Context, email string) (*models.Admin, error) {
	email = NormalizeEmail(email)
	if s.cache != nil {
		if v, ok := s.cache.Get(adminKey(email)); ok {
			a := *v.(*models.Admin)
			return &a, nil
		}
	}

	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, UnauthorizedError("admin not found")
		}
		return nil, err
	}

	if s.cache != nil {
		cached := *admin
		s.cache.SetDefault(adminKey(email), &cached)
	}
	return admin, nil
}

// Invalidate drops cached identities for an email
func (s *IdentityService) Invalidate(email string) {
	if s == nil || s.cache == nil {
		return
	}
	email = NormalizeEmail(email)
	s.cache.Delete(userKey(email))
	s.cache.Delete(adminKey(email))
}
