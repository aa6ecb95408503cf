package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"collabhub/internal/models"
	"collabhub/internal/services"
	"collabhub/pkg/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *captureMailer) SendOTP(_ context.Context, email, purpose, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codes == nil {
		m.codes = make(map[string]string)
	}
	m.codes[purpose+":"+email] = code
	return nil
}

func (m *captureMailer) code(purpose, email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[purpose+":"+email]
}

const strongPassword = "Str0ng!Pass"

func newAuthFixture(t *testing.T) (*fixture, *services.AuthService, *captureMailer, *auth.LocalJWTAuth) {
	t.Helper()

	f := newFixture(t)
	jwtAuth, err := auth.NewLocalJWTAuth("test-secret", time.Hour)
	require.NoError(t, err)
	mailer := &captureMailer{}
	return f, services.NewAuthService(f.stores, jwtAuth, mailer, f.identity, time.Minute), mailer, jwtAuth
}

func TestAuthSignupVerifySignin(t *testing.T) {
	ctx := context.Background()
	f, svc, mailer, jwtAuth := newAuthFixture(t)

	user, err := svc.Signup(ctx, services.SignupInput{Name: "Alice", Email: " Alice@Example.com ", Password: strongPassword})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, models.UserStatePending, user.State)

	_, err = svc.Signup(ctx, services.SignupInput{Name: "Again", Email: "alice@example.com", Password: strongPassword})
	requireKind(t, err, services.KindConflict)

	_, err = svc.Signin(ctx, "alice@example.com", strongPassword)
	svcErr := requireKind(t, err, services.KindUnauthorized)
	assert.Equal(t, "user not verified", svcErr.Message)

	_, err = svc.VerifyOTP(ctx, "alice@example.com", "000000x")
	requireKind(t, err, services.KindValidation)

	code := mailer.code(services.OTPPurposeRegistration, "alice@example.com")
	require.NotEmpty(t, code)
	verified, err := svc.VerifyOTP(ctx, "alice@example.com", code)
	require.NoError(t, err)
	assert.Equal(t, models.UserStateVerified, verified.State)

	_, err = svc.VerifyOTP(ctx, "alice@example.com", code)
	requireKind(t, err, services.KindConflict)

	_, err = svc.Signin(ctx, "alice@example.com", "wrong")
	requireKind(t, err, services.KindUnauthorized)

	result, err := svc.Signin(ctx, "ALICE@example.com", strongPassword)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, result.User.Role)
	require.NotNil(t, result.User.LastLogin)

	identity, err := jwtAuth.VerifyToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.ID)
	assert.Equal(t, "alice@example.com", identity.Email)

	_, err = f.admin.ToggleUserState(ctx, "admin-1", user.ID)
	require.NoError(t, err)
	_, err = svc.Signin(ctx, "alice@example.com", strongPassword)
	requireKind(t, err, services.KindForbidden)
}

func TestAuthSignupValidation(t *testing.T) {
	ctx := context.Background()
	f, svc, _, _ := newAuthFixture(t)

	_, err := svc.Signup(ctx, services.SignupInput{Name: "", Email: "a@example.com", Password: strongPassword})
	requireKind(t, err, services.KindValidation)

	_, err = svc.Signup(ctx, services.SignupInput{Name: "A", Email: "a@example.com", Password: "weak"})
	requireKind(t, err, services.KindValidation)

	admin := f.adminActor(t, "Root")
	_, err = svc.Signup(ctx, services.SignupInput{Name: "A", Email: admin.Email, Password: strongPassword})
	requireKind(t, err, services.KindConflict)
}

func TestAuthPasswordReset(t *testing.T) {
	ctx := context.Background()
	f, svc, mailer, _ := newAuthFixture(t)

	require.NoError(t, svc.ForgotPassword(ctx, "nobody@example.com"))

	user, err := svc.Signup(ctx, services.SignupInput{Name: "Bob", Email: "bob@example.com", Password: strongPassword})
	require.NoError(t, err)
	err = svc.ForgotPassword(ctx, "bob@example.com")
	requireKind(t, err, services.KindConflict)

	_, err = svc.VerifyOTP(ctx, "bob@example.com", mailer.code(services.OTPPurposeRegistration, "bob@example.com"))
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(ctx, "bob@example.com"))
	code := mailer.code(services.OTPPurposeReset, "bob@example.com")
	require.NotEmpty(t, code)

	err = svc.ResetPassword(ctx, "bob@example.com", "not-a-code", "N3w!Password")
	requireKind(t, err, services.KindValidation)

	require.NoError(t, svc.ResetPassword(ctx, "bob@example.com", code, "N3w!Password"))

	stored, err := f.stores.Users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	ok, err := auth.VerifyPassword(stored.PasswordHash, "N3w!Password")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, stored.ResetOTP)
}

func TestAuthAdminSigninAndSeed(t *testing.T) {
	ctx := context.Background()
	_, svc, _, _ := newAuthFixture(t)

	created, err := svc.SeedAdmin(ctx, "Root", "Root@Example.com", strongPassword)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.SeedAdmin(ctx, "Other", "other@example.com", strongPassword)
	require.NoError(t, err)
	assert.False(t, created)

	result, err := svc.AdminSignin(ctx, "root@example.com", strongPassword)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, result.User.Role)
	assert.NotEmpty(t, result.Token)

	_, err = svc.AdminSignin(ctx, "root@example.com", "nope")
	requireKind(t, err, services.KindUnauthorized)
}
