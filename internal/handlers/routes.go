package handlers

import (
	"collabhub/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// Handlers bundles every HTTP handler the router mounts
type Handlers struct {
	Health   *HealthHandler
	Auth     *AuthHandler
	User     *UserHandler
	Project  *ProjectHandler
	Task     *TaskHandler
	Comment  *CommentHandler
	Admin    *AdminHandler
	Socket   *NotificationSocketHandler
	WSOrigin []string
}

// RegisterRoutes mounts the API on app. The global limiter and the request
// middleware stack are installed by the caller.
func RegisterRoutes(app *fiber.App, guard *middleware.AuthGuard, h *Handlers, limits *middleware.RateLimitConfig) {
	app.Get("/health", h.Health.Handle)

	requireUser := guard.RequireUser()
	requireAdmin := guard.RequireAdmin()
	requireEither := guard.RequireUserOrAdmin()
	credentialLimiter := middleware.CredentialRateLimiter(limits)

	// Accounts
	user := app.Group("/user")
	user.Post("/signup", credentialLimiter, h.Auth.Signup)
	user.Post("/verify-otp", credentialLimiter, h.Auth.VerifyOTP)
	user.Post("/resend-otp", credentialLimiter, h.Auth.ResendOTP)
	user.Post("/signin", credentialLimiter, h.Auth.Signin)
	user.Post("/forgot-password", credentialLimiter, h.Auth.ForgotPassword)
	user.Post("/reset-password", credentialLimiter, h.Auth.ResetPassword)
	user.Get("/me", requireUser, h.User.Me)
	user.Get("/all-users", requireEither, h.User.ListUsers)

	// Projects
	project := app.Group("/project")
	project.Post("/create", requireUser, h.Project.Create)
	project.Put("/update", requireUser, h.Project.Update)
	project.Post("/addusers", requireUser, h.Project.AddMembers)
	project.Get("/get-my-projects", requireUser, h.Project.ListMine)
	project.Get("/get-my-assigned-projects", requireUser, h.Project.ListAssigned)
	project.Get("/get-all-users/:project_id", requireEither, h.Project.ListMembers)
	project.Get("/statistics/:project_id", requireEither, h.Project.Statistics)
	project.Get("/:project_id", requireEither, h.Project.Get)

	// Tasks
	task := app.Group("/task")
	task.Get("/my-created-tasks", requireUser, h.Task.ListCreated)
	task.Get("/my-assigned-tasks", requireUser, h.Task.ListAssigned)
	task.Post("/project/:project_id/create-task", requireUser, h.Task.Create)
	task.Get("/project/:project_id/view-tasks", requireEither, h.Task.ListByProject)
	task.Delete("/project/:project_id/:task_id", requireUser, h.Task.Delete)
	task.Put("/:task_id/edit", requireUser, h.Task.Edit)
	task.Post("/:task_id/add-assignee", requireEither, h.Task.AddAssignees)
	task.Get("/:task_id/assignees", requireEither, h.Task.Assignees)
	task.Get("/:task_id/history", requireEither, h.Task.History)

	// Comments and unread counters
	comment := app.Group("/comment")
	comment.Post("/send-message", requireUser, middleware.UploadRateLimiter(limits), h.Comment.Send)
	comment.Get("/project/:project_id", requireEither, h.Comment.List)
	comment.Get("/download/:id", requireEither, h.Comment.Download)
	comment.Get("/unread", requireUser, h.Comment.Summary)
	comment.Get("/unread/:project_id", requireUser, h.Comment.Unread)
	comment.Put("/mark-read/:project_id", requireUser, h.Comment.MarkRead)

	// Admin
	admin := app.Group("/admin")
	admin.Post("/signin", credentialLimiter, h.Auth.AdminSignin)
	admin.Post("/approve-project", requireAdmin, h.Admin.ApproveProject)
	admin.Get("/project-approvals/:project_id", requireAdmin, h.Admin.ProjectApprovals)
	admin.Put("/archive-project", requireAdmin, h.Admin.ArchiveProject)
	admin.Get("/all-users", requireAdmin, h.Admin.ListUsers)
	admin.Get("/all-projects", requireAdmin, h.Admin.ListProjects)
	admin.Get("/get-archived-projects", requireAdmin, h.Admin.ListArchivedProjects)
	admin.Put("/user-state", requireAdmin, h.Admin.ToggleUserState)
	admin.Put("/change-role", requireAdmin, h.Admin.ChangeRole)

	// Notification socket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/notifications",
		middleware.WebSocketRateLimiter(limits),
		requireUser,
		websocket.New(h.Socket.Handle, websocket.Config{Origins: h.WSOrigin}),
	)
}
