package handlers

import (
	"log"

	"collabhub/internal/middleware"
	"collabhub/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProjectHandler handles project lifecycle endpoints for users
type ProjectHandler struct {
	projectService *services.ProjectService
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// CreateProjectRequest is the request body for a new project
type CreateProjectRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Deadline    string   `json:"deadline"`
	Tags        []string `json:"tags"`
}

// UpdateProjectRequest carries only the fields to change
type UpdateProjectRequest struct {
	ProjectID   string   `json:"project_id" validate:"required"`
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Deadline    *string  `json:"deadline"`
	Tags        []string `json:"tags"`
}

// AddMembersRequest adds users to a project
type AddMembersRequest struct {
	ProjectID string   `json:"project_id" validate:"required"`
	UserIDs   []string `json:"user_ids" validate:"required,min=1"`
}

// Create creates a project owned by the caller
// POST /project/create
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	var req CreateProjectRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	actor := middleware.Actor(c)
	log.Printf("📥 [PROJECT] Create request from %s: %s", actor.Email, req.Name)

	project, err := h.projectService.Create(c.UserContext(), actor, services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Deadline:    req.Deadline,
		Tags:        req.Tags,
	})
	if err != nil {
		return respondError(c, err)
	}

	log.Printf("✅ [PROJECT] Created %s (%s)", project.Name, project.ID)
	return c.JSON(project)
}

// Update edits a project the caller created
// PUT /project/update
func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	var req UpdateProjectRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	project, err := h.projectService.Update(c.UserContext(), middleware.Actor(c), services.UpdateProjectInput{
		ProjectID:   req.ProjectID,
		Name:        req.Name,
		Description: req.Description,
		Deadline:    req.Deadline,
		Tags:        req.Tags,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(project)
}

// AddMembers adds users to a project, reporting per-id failures
// POST /project/addusers
func (h *ProjectHandler) AddMembers(c *fiber.Ctx) error {
	var req AddMembersRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	result, err := h.projectService.AddMembers(c.UserContext(), middleware.Actor(c), req.ProjectID, req.UserIDs)
	if err != nil {
		return respondError(c, err)
	}

	if len(result.Errors) > 0 {
		log.Printf("⚠️  [PROJECT] %d of %d members rejected for %s", len(result.Errors), len(req.UserIDs), req.ProjectID)
	}
	return c.JSON(result)
}

// ListMine returns projects the caller created
// GET /project/get-my-projects
func (h *ProjectHandler) ListMine(c *fiber.Ctx) error {
	projects, err := h.projectService.ListMine(c.UserContext(), middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(projects)
}

// ListAssigned returns projects the caller was added to
// GET /project/get-my-assigned-projects
func (h *ProjectHandler) ListAssigned(c *fiber.Ctx) error {
	projects, err := h.projectService.ListAssigned(c.UserContext(), middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(projects)
}

// ListMembers returns the members of a project
// GET /project/get-all-users/:project_id
func (h *ProjectHandler) ListMembers(c *fiber.Ctx) error {
	members, err := h.projectService.ListMembers(c.UserContext(), c.Params("project_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(members)
}

// Get returns one project
// GET /project/:project_id
func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	project, err := h.projectService.Get(c.UserContext(), middleware.Actor(c), c.Params("project_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(project)
}

// Statistics returns the task rollup of a project
// GET /project/statistics/:project_id
func (h *ProjectHandler) Statistics(c *fiber.Ctx) error {
	stat, err := h.projectService.Statistics(c.UserContext(), c.Params("project_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stat)
}
