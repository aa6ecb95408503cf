package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"collabhub/internal/database"
	"collabhub/internal/logging"
	"collabhub/internal/models"
	"collabhub/internal/security"
	"collabhub/pkg/auth"

	"github.com/google/uuid"
)

// AuthService handles account registration and sign-in for users and admins
type AuthService struct {
	users    UserStore
	admins   AdminStore
	jwt      *auth.LocalJWTAuth
	mailer   Mailer
	identity *IdentityService
	otpTTL   time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(stores *Stores, jwtAuth *auth.LocalJWTAuth, mailer Mailer, identity *IdentityService, otpTTL time.Duration) *AuthService {
	if mailer == nil {
		mailer = NewLogMailer()
	}
	if otpTTL <= 0 {
		otpTTL = 15 * time.Minute
	}
	return &AuthService{
		users:    stores.Users,
		admins:   stores.Admins,
		jwt:      jwtAuth,
		mailer:   mailer,
		identity: identity,
		otpTTL:   otpTTL,
		logger:   logging.Component("auth"),
		now:      time.Now,
	}
}

// SignupInput is a new user registration
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// AuthResult is returned by the sign-in operations
type AuthResult struct {
	Token string              `json:"token"`
	User  models.UserResponse `json:"user"`
}

// Signup creates a pending user and sends a registration code
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	email := NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ValidationError("name is required")
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return nil, ValidationError("%s", err.Error())
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ConflictError("email already registered")
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}
	if _, err := s.admins.GetByEmail(ctx, email); err == nil {
		return nil, ConflictError("email already registered")
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	code, err := security.GenerateOTP()
	if err != nil {
		return nil, err
	}
	expires := s.now().Add(s.otpTTL)

	user := &models.User{
		ID:              uuid.NewString(),
		Name:            name,
		Email:           email,
		PasswordHash:    hash,
		State:           models.UserStatePending,
		RegistrationOTP: security.HashOTP(code),
		OTPExpiresAt:    &expires,
		CreatedAt:       s.now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ConflictError("email already registered")
		}
		return nil, err
	}

	if err := s.mailer.SendOTP(ctx, email, OTPPurposeRegistration, code); err != nil {
		return nil, fmt.Errorf("failed to send registration code: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "email", email)
	return user, nil
}

// VerifyOTP moves a pending user to verified
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, NotFoundError("user not found")
		}
		return nil, err
	}
	if user.State != models.UserStatePending {
		return nil, ConflictError("user already verified")
	}
	if !s.otpValid(user.RegistrationOTP, user.OTPExpiresAt, code) {
		return nil, ValidationError("invalid or expired otp")
	}

	user.State = models.UserStateVerified
	user.RegistrationOTP = ""
	user.OTPExpiresAt = nil
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.identity.Invalidate(user.Email)

	s.logger.Info("user verified", "user_id", user.ID)
	return user, nil
}

// ResendOTP issues a fresh registration code to a pending user
func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return NotFoundError("user not found")
		}
		return err
	}
	if user.State != models.UserStatePending {
		return ConflictError("user already verified")
	}

	code, err := security.GenerateOTP()
	if err != nil {
		return err
	}
	expires := s.now().Add(s.otpTTL)
	user.RegistrationOTP = security.HashOTP(code)
	user.OTPExpiresAt = &expires
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	return s.mailer.SendOTP(ctx, user.Email, OTPPurposeRegistration, code)
}

// Signin authenticates a verified user
func (s *AuthService) Signin(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, UnauthorizedError("invalid email or password")
		}
		return nil, err
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, password)
	if err != nil || !ok {
		return nil, UnauthorizedError("invalid email or password")
	}

	switch user.State {
	case models.UserStatePending:
		return nil, UnauthorizedError("user not verified")
	case models.UserStateBlocked:
		return nil, ForbiddenError("user is blocked")
	}

	now := s.now()
	user.LastLogin = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Email, models.RoleUser)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user.ToResponse()}, nil
}

// ForgotPassword sends a reset code. Unknown emails succeed silently.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil
		}
		return err
	}
	if user.State == models.UserStatePending {
		return ConflictError("user must verify first")
	}

	code, err := security.GenerateOTP()
	if err != nil {
		return err
	}
	expires := s.now().Add(s.otpTTL)
	user.ResetOTP = security.HashOTP(code)
	user.OTPExpiresAt = &expires
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	return s.mailer.SendOTP(ctx, user.Email, OTPPurposeReset, code)
}

// ResetPassword replaces the password when the reset code matches
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ValidationError("invalid or expired otp")
		}
		return err
	}
	if !s.otpValid(user.ResetOTP, user.OTPExpiresAt, code) {
		return ValidationError("invalid or expired otp")
	}
	if err := auth.ValidatePassword(newPassword); err != nil {
		return ValidationError("%s", err.Error())
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.ResetOTP = ""
	user.OTPExpiresAt = nil
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	s.identity.Invalidate(user.Email)

	s.logger.Info("password reset", "user_id", user.ID)
	return nil
}

// AdminSignin authenticates an admin
func (s *AuthService) AdminSignin(ctx context.Context, email, password string) (*AuthResult, error) {
	admin, err := s.admins.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, UnauthorizedError("invalid email or password")
		}
		return nil, err
	}

	ok, err := auth.VerifyPassword(admin.PasswordHash, password)
	if err != nil || !ok {
		return nil, UnauthorizedError("invalid email or password")
	}

	now := s.now()
	admin.LastLogin = &now
	if err := s.admins.Update(ctx, admin); err != nil {
		return nil, err
	}

	token, err := s.jwt.GenerateToken(admin.ID, admin.Email, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: admin.ToResponse()}, nil
}

// SeedAdmin creates the first admin when none exists
func (s *AuthService) SeedAdmin(ctx context.Context, name, email, password string) (bool, error) {
	count, err := s.admins.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}
	admin := &models.Admin{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        NormalizeEmail(email),
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return false, nil
		}
		return false, err
	}

	s.logger.Info("admin seeded", "admin_id", admin.ID, "email", admin.Email)
	return true, nil
}

func (s *AuthService) otpValid(stored string, expires *time.Time, code string) bool {
	if expires == nil || s.now().After(*expires) {
		return false
	}
	return security.VerifyOTP(stored, code)
}

// Me returns the caller's own account
func (s *AuthService) Me(ctx context.Context, userID string) (*models.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user not found")
	}
	resp := user.ToResponse()
	return &resp, nil
}

// Directory lists verified users for picking members and assignees
func (s *AuthService) Directory(ctx context.Context) ([]models.UserResponse, error) {
	users, err := s.users.ListByStates(ctx, models.UserStateVerified)
	if err != nil {
		return nil, err
	}
	return models.UsersToResponse(users), nil
}
