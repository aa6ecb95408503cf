package services

import (
	"context"
	"errors"
	"log/slog"

	"collabhub/internal/database"
	"collabhub/internal/logging"
	"collabhub/internal/models"
)

// AdminService implements the account administration operations
type AdminService struct {
	stores   *Stores
	identity *IdentityService
	logger   *slog.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(stores *Stores, identity *IdentityService) *AdminService {
	return &AdminService{
		stores:   stores,
		identity: identity,
		logger:   logging.Component("admin"),
	}
}

// ListUsers returns every user that completed verification
func (s *AdminService) ListUsers(ctx context.Context) ([]models.UserResponse, error) {
	users, err := s.stores.Users.ListByStates(ctx, models.UserStateVerified, models.UserStateBlocked)
	if err != nil {
		return nil, err
	}
	return models.UsersToResponse(users), nil
}

// ToggleUserState flips a user between verified and blocked
func (s *AdminService) ToggleUserState(ctx context.Context, adminID, userID string) (*models.User, error) {
	user, err := s.stores.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user not found")
	}

	switch user.State {
	case models.UserStateVerified:
		user.State = models.UserStateBlocked
	case models.UserStateBlocked:
		user.State = models.UserStateVerified
	default:
		return nil, ConflictError("user must verify first")
	}

	if err := s.stores.Users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.identity.Invalidate(user.Email)

	logging.WithActor(s.logger, adminID, models.RoleAdmin).Info("user state changed", "user_id", user.ID, "state", user.State)
	return user, nil
}

// ChangeRole migrates an account between the users and admins collections.
// The id is preserved; the copy and delete share one transaction.
func (s *AdminService) ChangeRole(ctx context.Context, caller Actor, id, role string) (*models.UserResponse, error) {
	switch role {
	case models.RoleAdmin:
		return s.promote(ctx, caller, id)
	case models.RoleUser:
		return s.demote(ctx, caller, id)
	default:
		return nil, ValidationError("role must be user or admin")
	}
}

func (s *AdminService) promote(ctx context.Context, caller Actor, userID string) (*models.UserResponse, error) {
	user, err := s.stores.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user not found")
	}
	if _, err := s.stores.Admins.GetByEmail(ctx, user.Email); err == nil {
		return nil, ConflictError("an admin with this email already exists")
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	admin := &models.Admin{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
		LastLogin:    user.LastLogin,
	}
	err = s.stores.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.stores.Admins.Create(ctx, admin); err != nil {
			return err
		}
		return s.stores.Users.Delete(ctx, user.ID)
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ConflictError("an admin with this email already exists")
		}
		return nil, err
	}
	s.identity.Invalidate(user.Email)

	GetMetrics().RoleMigrated(models.RoleAdmin)
	logging.WithActor(s.logger, caller.ID, caller.Role).Info("user promoted to admin", "id", admin.ID)
	resp := admin.ToResponse()
	return &resp, nil
}

func (s *AdminService) demote(ctx context.Context, caller Actor, adminID string) (*models.UserResponse, error) {
	if adminID == caller.ID {
		return nil, ConflictError("cannot change your own role")
	}
	admin, err := s.stores.Admins.GetByID(ctx, adminID)
	if err != nil {
		return nil, notFound(err, "admin not found")
	}
	if _, err := s.stores.Users.GetByEmail(ctx, admin.Email); err == nil {
		return nil, ConflictError("a user with this email already exists")
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	user := &models.User{
		ID:           admin.ID,
		Name:         admin.Name,
		Email:        admin.Email,
		PasswordHash: admin.PasswordHash,
		State:        models.UserStateVerified,
		CreatedAt:    admin.CreatedAt,
		LastLogin:    admin.LastLogin,
	}
	err = s.stores.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.stores.Users.Create(ctx, user); err != nil {
			return err
		}
		return s.stores.Admins.Delete(ctx, admin.ID)
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ConflictError("a user with this email already exists")
		}
		return nil, err
	}
	s.identity.Invalidate(admin.Email)

	GetMetrics().RoleMigrated(models.RoleUser)
	logging.WithActor(s.logger, caller.ID, caller.Role).Info("admin demoted to user", "id", user.ID)
	resp := user.ToResponse()
	return &resp, nil
}
