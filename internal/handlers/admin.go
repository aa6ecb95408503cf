package handlers

import (
	"log"

	"collabhub/internal/middleware"
	"collabhub/internal/models"
	"collabhub/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler handles admin oversight endpoints
type AdminHandler struct {
	adminService   *services.AdminService
	projectService *services.ProjectService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *services.AdminService, projectService *services.ProjectService) *AdminHandler {
	return &AdminHandler{
		adminService:   adminService,
		projectService: projectService,
	}
}

// ApproveProjectRequest records a decision on a project
type ApproveProjectRequest struct {
	ProjectID string `json:"project_id" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=approved rejected"`
}

// ProjectRequest names a single project
type ProjectRequest struct {
	ProjectID string `json:"project_id" validate:"required"`
}

// UserStateRequest names the user whose state is toggled
type UserStateRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// ChangeRoleRequest migrates an account between users and admins
type ChangeRoleRequest struct {
	ID   string `json:"id" validate:"required"`
	Role string `json:"role" validate:"required,oneof=admin user"`
}

// ApproveProject approves or rejects a project
// POST /admin/approve-project
func (h *AdminHandler) ApproveProject(c *fiber.Ctx) error {
	var req ApproveProjectRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	actor := middleware.Actor(c)
	approval, err := h.projectService.Approve(c.UserContext(), actor.ID, req.ProjectID, models.ApprovalStatus(req.Status))
	if err != nil {
		return respondError(c, err)
	}

	log.Printf("✅ [ADMIN] Project %s %s by %s", req.ProjectID, req.Status, actor.Email)
	return c.JSON(approval)
}

// ProjectApprovals returns the decision history of a project
// GET /admin/project-approvals/:project_id
func (h *AdminHandler) ProjectApprovals(c *fiber.Ctx) error {
	approvals, err := h.projectService.Approvals(c.UserContext(), c.Params("project_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(approvals)
}

// ArchiveProject archives a project
// PUT /admin/archive-project
func (h *AdminHandler) ArchiveProject(c *fiber.Ctx) error {
	var req ProjectRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	actor := middleware.Actor(c)
	project, err := h.projectService.Archive(c.UserContext(), actor.ID, req.ProjectID)
	if err != nil {
		return respondError(c, err)
	}

	log.Printf("📦 [ADMIN] Project %s archived by %s", req.ProjectID, actor.Email)
	return c.JSON(project)
}

// ListProjects returns every project
// GET /admin/all-projects
func (h *AdminHandler) ListProjects(c *fiber.Ctx) error {
	projects, err := h.projectService.ListAll(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(projects)
}

// ListArchivedProjects returns archived projects
// GET /admin/get-archived-projects
func (h *AdminHandler) ListArchivedProjects(c *fiber.Ctx) error {
	projects, err := h.projectService.ListArchived(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(projects)
}

// ListUsers returns verified and blocked users
// GET /admin/all-users
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.adminService.ListUsers(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// ToggleUserState blocks a verified user or unblocks a blocked one
// PUT /admin/user-state
func (h *AdminHandler) ToggleUserState(c *fiber.Ctx) error {
	var req UserStateRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	actor := middleware.Actor(c)
	user, err := h.adminService.ToggleUserState(c.UserContext(), actor.ID, req.UserID)
	if err != nil {
		return respondError(c, err)
	}

	log.Printf("🔒 [ADMIN] User %s is now %s", user.Email, user.State)
	return c.JSON(user.ToResponse())
}

// ChangeRole moves an account between the user and admin collections
// PUT /admin/change-role
func (h *AdminHandler) ChangeRole(c *fiber.Ctx) error {
	var req ChangeRoleRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	actor := middleware.Actor(c)
	account, err := h.adminService.ChangeRole(c.UserContext(), actor, req.ID, req.Role)
	if err != nil {
		return respondError(c, err)
	}

	log.Printf("🔁 [ADMIN] %s migrated to %s by %s", account.Email, req.Role, actor.Email)
	return c.JSON(account)
}
