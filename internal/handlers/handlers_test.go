package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"collabhub/internal/memstore"
	"collabhub/internal/middleware"
	"collabhub/internal/models"
	"collabhub/internal/services"
	"collabhub/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *captureMailer) SendOTP(_ context.Context, email, _ string, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codes == nil {
		m.codes = make(map[string]string)
	}
	m.codes[email] = code
	return nil
}

func (m *captureMailer) code(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

type testServer struct {
	app    *fiber.App
	jwt    *auth.LocalJWTAuth
	stores *services.Stores
	mailer *captureMailer
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	stores := memstore.New()
	jwtAuth, err := auth.NewLocalJWTAuth("handler-test-secret", time.Hour)
	require.NoError(t, err)

	mailer := &captureMailer{}
	connManager := services.NewConnectionManager()
	identity := services.NewIdentityService(stores.Users, stores.Admins, 0)
	authService := services.NewAuthService(stores, jwtAuth, mailer, identity, time.Minute)
	projects := services.NewProjectService(stores)
	stats := services.NewStatisticsService(stores)
	notifications := services.NewNotificationService(stores, projects, connManager)

	app := fiber.New()
	RegisterRoutes(app, middleware.NewAuthGuard(jwtAuth, identity), &Handlers{
		Health:  NewHealthHandler(connManager, "memory", nil, nil),
		Auth:    NewAuthHandler(authService),
		User:    NewUserHandler(authService),
		Project: NewProjectHandler(projects),
		Task:    NewTaskHandler(services.NewTaskService(stores, projects, stats)),
		Comment: NewCommentHandler(services.NewCommentService(stores, projects, notifications, 1024), notifications),
		Admin:   NewAdminHandler(services.NewAdminService(stores, identity), projects),
		Socket:  NewNotificationSocketHandler(connManager, notifications),
	}, middleware.DefaultRateLimitConfig())

	return &testServer{app: app, jwt: jwtAuth, stores: stores, mailer: mailer}
}

// seedUser stores a verified user and returns it with a signed token
func (s *testServer) seedUser(t *testing.T, name string) (*models.User, string) {
	t.Helper()

	user := &models.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     strings.ToLower(name) + "@example.com",
		State:     models.UserStateVerified,
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.stores.Users.Create(context.Background(), user))
	token, err := s.jwt.GenerateToken(user.ID, user.Email, models.RoleUser)
	require.NoError(t, err)
	return user, token
}

func (s *testServer) seedAdmin(t *testing.T, name string) (*models.Admin, string) {
	t.Helper()

	admin := &models.Admin{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     strings.ToLower(name) + "@example.com",
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.stores.Admins.Create(context.Background(), admin))
	token, err := s.jwt.GenerateToken(admin.ID, admin.Email, models.RoleAdmin)
	require.NoError(t, err)
	return admin, token
}

// do sends a JSON request and decodes the JSON response into out when given
func (s *testServer) do(t *testing.T, method, path, token string, body interface{}, out interface{}) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	return s.send(t, req, out)
}

func (s *testServer) send(t *testing.T, req *http.Request, out interface{}) int {
	t.Helper()

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// createApprovedProject creates a project as owner and approves it as admin
func (s *testServer) createApprovedProject(t *testing.T, ownerToken, adminToken, name string) string {
	t.Helper()

	var project map[string]interface{}
	status := s.do(t, "POST", "/project/create", ownerToken, fiber.Map{
		"name":        name,
		"description": "handler test project",
		"tags":        []string{"backend"},
	}, &project)
	require.Equal(t, fiber.StatusOK, status)
	projectID := project["id"].(string)

	status = s.do(t, "POST", "/admin/approve-project", adminToken, fiber.Map{
		"project_id": projectID,
		"status":     "approved",
	}, nil)
	require.Equal(t, fiber.StatusOK, status)
	return projectID
}

func TestHealthHandler(t *testing.T) {
	s := setupTestServer(t)

	var body map[string]interface{}
	status := s.do(t, "GET", "/health", "", nil, &body)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "memory", body["store"])
	assert.Equal(t, "disabled", body["redis"])
	assert.EqualValues(t, 0, body["connections"])
}

func TestSignupVerifyAndSignin(t *testing.T) {
	s := setupTestServer(t)

	signup := fiber.Map{"name": "Ada", "email": "Ada@Example.com", "password": "Str0ng!Pass"}
	status := s.do(t, "POST", "/user/signup", "", signup, nil)
	require.Equal(t, fiber.StatusCreated, status)

	var body map[string]interface{}
	status = s.do(t, "POST", "/user/signup", "", signup, &body)
	assert.Equal(t, fiber.StatusBadRequest, status)

	// pending users cannot sign in yet
	status = s.do(t, "POST", "/user/signin", "", fiber.Map{"email": "ada@example.com", "password": "Str0ng!Pass"}, &body)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	code := s.mailer.code("ada@example.com")
	require.NotEmpty(t, code)
	status = s.do(t, "POST", "/user/verify-otp", "", fiber.Map{"email": "ada@example.com", "otp": code}, nil)
	require.Equal(t, fiber.StatusOK, status)

	var signin struct {
		Token string              `json:"token"`
		User  models.UserResponse `json:"user"`
	}
	status = s.do(t, "POST", "/user/signin", "", fiber.Map{"email": "ada@example.com", "password": "Str0ng!Pass"}, &signin)
	require.Equal(t, fiber.StatusOK, status)
	require.NotEmpty(t, signin.Token)
	assert.Equal(t, models.UserStateVerified, signin.User.State)

	var me models.UserResponse
	status = s.do(t, "GET", "/user/me", signin.Token, nil, &me)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ada@example.com", me.Email)
}

func TestSignupValidationReportsFields(t *testing.T) {
	s := setupTestServer(t)

	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	status := s.do(t, "POST", "/user/signup", "", fiber.Map{"name": "Bob", "email": "not-an-email"}, &body)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "validation failed", body.Error)
	assert.Contains(t, body.Fields, "email")
	assert.Contains(t, body.Fields, "password")
}

func TestProjectAndTaskFlow(t *testing.T) {
	s := setupTestServer(t)
	_, ownerToken := s.seedUser(t, "Owner")
	member, _ := s.seedUser(t, "Member")
	_, adminToken := s.seedAdmin(t, "Root")

	var project map[string]interface{}
	status := s.do(t, "POST", "/project/create", ownerToken, fiber.Map{
		"name":        "Apollo",
		"description": "moonshot",
		"deadline":    "01/01/30",
	}, &project)
	require.Equal(t, fiber.StatusOK, status)
	projectID := project["id"].(string)
	assert.Equal(t, false, project["is_approved"])

	// unapproved projects do not accept tasks
	var errBody map[string]interface{}
	status = s.do(t, "POST", "/task/project/"+projectID+"/create-task", ownerToken, fiber.Map{"title": "Launch"}, &errBody)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "project not found or not approved", errBody["error"])

	status = s.do(t, "POST", "/admin/approve-project", adminToken, fiber.Map{"project_id": projectID, "status": "approved"}, nil)
	require.Equal(t, fiber.StatusOK, status)
	status = s.do(t, "POST", "/admin/approve-project", adminToken, fiber.Map{"project_id": projectID, "status": "approved"}, &errBody)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "project already approved", errBody["error"])

	var added services.AddMembersResult
	status = s.do(t, "POST", "/project/addusers", ownerToken, fiber.Map{
		"project_id": projectID,
		"user_ids":   []string{member.ID, "ghost"},
	}, &added)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []string{member.ID}, added.Added)
	require.Len(t, added.Errors, 1)
	assert.Equal(t, "ghost", added.Errors[0].UserID)

	var task models.Task
	status = s.do(t, "POST", "/task/project/"+projectID+"/create-task", ownerToken, fiber.Map{
		"title":     "Launch",
		"assignees": []string{member.ID},
	}, &task)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, models.TaskStatusTodo, task.Status)
	assert.Equal(t, []string{member.ID}, task.Assignees)

	status = s.do(t, "POST", "/task/project/"+projectID+"/create-task", ownerToken, fiber.Map{"title": "Launch"}, &errBody)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "task title already exists", errBody["error"])

	status = s.do(t, "PUT", "/task/"+task.ID+"/edit", ownerToken, fiber.Map{"status": "2"}, &task)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)

	status = s.do(t, "PUT", "/task/"+task.ID+"/edit", ownerToken, fiber.Map{"status": "2"}, &errBody)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "no changes detected", errBody["error"])

	var stat models.ProjectStatistic
	status = s.do(t, "GET", "/project/statistics/"+projectID, adminToken, nil, &stat)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 1, stat.TotalTasks)
	assert.Equal(t, 1, stat.CompletedTasks)
	assert.InDelta(t, 100.0, stat.CompletionPercentage, 0.001)

	var tasks []models.Task
	status = s.do(t, "GET", "/task/project/"+projectID+"/view-tasks", adminToken, nil, &tasks)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, tasks, 1)

	var history []models.TaskHistory
	status = s.do(t, "GET", "/task/"+task.ID+"/history", ownerToken, nil, &history)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, history, 2)
	assert.Equal(t, "update_status", history[0].Action)

	status = s.do(t, "DELETE", "/task/project/other-project/"+task.ID, ownerToken, nil, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	status = s.do(t, "DELETE", "/task/project/"+projectID+"/"+task.ID, ownerToken, nil, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestUnknownProjectIsNotFound(t *testing.T) {
	s := setupTestServer(t)
	_, token := s.seedUser(t, "Owner")

	status := s.do(t, "GET", "/project/get-all-users/missing", token, nil, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	status = s.do(t, "GET", "/task/project/missing/view-tasks", token, nil, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestUpdateProjectRequiresCreator(t *testing.T) {
	s := setupTestServer(t)
	_, ownerToken := s.seedUser(t, "Owner")
	_, otherToken := s.seedUser(t, "Other")
	_, adminToken := s.seedAdmin(t, "Root")
	projectID := s.createApprovedProject(t, ownerToken, adminToken, "Gemini")

	status := s.do(t, "PUT", "/project/update", otherToken, fiber.Map{"project_id": projectID, "name": "Hijacked"}, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	var project map[string]interface{}
	status = s.do(t, "PUT", "/project/update", ownerToken, fiber.Map{"project_id": projectID, "description": "updated"}, &project)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "updated", project["description"])
}

func multipartComment(t *testing.T, projectID, content, fileName string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("project_id", projectID))
	if content != "" {
		require.NoError(t, writer.WriteField("content", content))
	}
	if fileName != "" {
		part, err := writer.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestCommentUploadDownloadAndUnread(t *testing.T) {
	s := setupTestServer(t)
	_, ownerToken := s.seedUser(t, "Owner")
	member, memberToken := s.seedUser(t, "Member")
	_, adminToken := s.seedAdmin(t, "Root")
	projectID := s.createApprovedProject(t, ownerToken, adminToken, "Voyager")

	status := s.do(t, "POST", "/project/addusers", ownerToken, fiber.Map{
		"project_id": projectID,
		"user_ids":   []string{member.ID},
	}, nil)
	require.Equal(t, fiber.StatusOK, status)

	body, contentType := multipartComment(t, projectID, "see attached", "../notes.txt", []byte("hello world"))
	req := httptest.NewRequest("POST", "/comment/send-message", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", ownerToken)

	var comment models.Comment
	status = s.send(t, req, &comment)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "notes.txt", comment.FileName)
	assert.EqualValues(t, 11, comment.FileSize)
	assert.Equal(t, "/comment/download/"+comment.ID, comment.FilePath)

	var unread models.Notification
	status = s.do(t, "GET", "/comment/unread/"+projectID, memberToken, nil, &unread)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 1, unread.UnreadMessages)

	status = s.do(t, "GET", "/comment/unread/"+projectID, ownerToken, nil, &unread)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 0, unread.UnreadMessages)

	resp, err := s.app.Test(authorized(httptest.NewRequest("GET", "/comment/download/"+comment.ID, nil), memberToken), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello world", string(data))
	assert.Equal(t, `attachment; filename="notes.txt"`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "11", resp.Header.Get("Content-Length"))

	var comments []models.Comment
	status = s.do(t, "GET", "/comment/project/"+projectID, memberToken, nil, &comments)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, comments, 1)
	assert.Equal(t, "see attached", comments[0].Content)

	status = s.do(t, "PUT", "/comment/mark-read/"+projectID, memberToken, nil, nil)
	require.Equal(t, fiber.StatusOK, status)

	var summary models.UnreadSummary
	status = s.do(t, "GET", "/comment/unread", memberToken, nil, &summary)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 0, summary.Total)
	assert.Empty(t, summary.Projects)
}

func authorized(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", token)
	return req
}

func TestCommentRejections(t *testing.T) {
	s := setupTestServer(t)
	_, ownerToken := s.seedUser(t, "Owner")
	_, outsiderToken := s.seedUser(t, "Outsider")
	_, adminToken := s.seedAdmin(t, "Root")
	projectID := s.createApprovedProject(t, ownerToken, adminToken, "Hubble")

	var errBody map[string]interface{}
	status := s.do(t, "POST", "/comment/send-message", ownerToken, fiber.Map{"project_id": projectID}, &errBody)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "content or file is required", errBody["error"])

	status = s.do(t, "POST", "/comment/send-message", outsiderToken, fiber.Map{"project_id": projectID, "content": "hi"}, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status = s.do(t, "POST", "/comment/send-message", ownerToken, fiber.Map{"project_id": "missing", "content": "hi"}, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	body, contentType := multipartComment(t, projectID, "", "big.bin", bytes.Repeat([]byte("x"), 2048))
	req := httptest.NewRequest("POST", "/comment/send-message", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", ownerToken)
	assert.Equal(t, fiber.StatusBadRequest, s.send(t, req, nil))

	status = s.do(t, "GET", "/comment/download/missing", ownerToken, nil, &errBody)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "file not found", errBody["error"])
}

func TestAdminRoutes(t *testing.T) {
	s := setupTestServer(t)
	user, userToken := s.seedUser(t, "Alice")
	_, adminToken := s.seedAdmin(t, "Root")

	var errBody map[string]interface{}
	status := s.do(t, "GET", "/admin/all-users", userToken, nil, &errBody)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "admin not found", errBody["error"])

	var users []models.UserResponse
	status = s.do(t, "GET", "/admin/all-users", adminToken, nil, &users)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, users, 1)
	assert.Equal(t, user.ID, users[0].ID)

	var toggled models.UserResponse
	status = s.do(t, "PUT", "/admin/user-state", adminToken, fiber.Map{"user_id": user.ID}, &toggled)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.UserStateBlocked, toggled.State)

	// blocked users are turned away by the guard
	status = s.do(t, "GET", "/user/me", userToken, nil, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status = s.do(t, "PUT", "/admin/user-state", adminToken, fiber.Map{"user_id": user.ID}, &toggled)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.UserStateVerified, toggled.State)

	status = s.do(t, "PUT", "/admin/change-role", adminToken, fiber.Map{"id": user.ID, "role": "superuser"}, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	var promoted models.UserResponse
	status = s.do(t, "PUT", "/admin/change-role", adminToken, fiber.Map{"id": user.ID, "role": "admin"}, &promoted)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, user.ID, promoted.ID)
	assert.Equal(t, models.RoleAdmin, promoted.Role)

	// the old user credential now resolves to the admin record
	status = s.do(t, "GET", "/admin/all-projects", userToken, nil, nil)
	assert.Equal(t, fiber.StatusOK, status)
	status = s.do(t, "GET", "/user/me", userToken, nil, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	status = s.do(t, "GET", "/project/get-all-users/missing", userToken, nil, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestArchiveProject(t *testing.T) {
	s := setupTestServer(t)
	_, ownerToken := s.seedUser(t, "Owner")
	_, adminToken := s.seedAdmin(t, "Root")
	projectID := s.createApprovedProject(t, ownerToken, adminToken, "Skylab")

	status := s.do(t, "PUT", "/admin/archive-project", adminToken, fiber.Map{"project_id": projectID}, nil)
	require.Equal(t, fiber.StatusOK, status)
	status = s.do(t, "PUT", "/admin/archive-project", adminToken, fiber.Map{"project_id": projectID}, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	var mine []map[string]interface{}
	status = s.do(t, "GET", "/project/get-my-projects", ownerToken, nil, &mine)
	require.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, mine)

	var archived []map[string]interface{}
	status = s.do(t, "GET", "/admin/get-archived-projects", adminToken, nil, &archived)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, archived, 1)
	assert.Equal(t, projectID, archived[0]["id"])
}

func TestInactiveUsersCannotWrite(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		state      models.UserState
		wantStatus int
		wantError  string
	}{
		{"blocked", models.UserStateBlocked, fiber.StatusForbidden, "user is blocked"},
		{"pending", models.UserStatePending, fiber.StatusUnauthorized, "user not verified"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, token := s.seedUser(t, "inactive-"+tt.name)
			user.State = tt.state
			require.NoError(t, s.stores.Users.Update(ctx, user))

			projectName := "Inactive " + tt.name
			var body map[string]interface{}
			status := s.do(t, "POST", "/project/create", token, fiber.Map{
				"name":        projectName,
				"description": "must not be stored",
			}, &body)

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantError, body["error"])
			assert.NotContains(t, body, "id")

			_, err := s.stores.Projects.GetByName(ctx, projectName)
			assert.Error(t, err)
		})
	}
}
