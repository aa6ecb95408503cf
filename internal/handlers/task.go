package handlers

import (
	"log"

	"collabhub/internal/middleware"
	"collabhub/internal/services"

	"github.com/gofiber/fiber/v2"
)

// TaskHandler handles task endpoints
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// CreateTaskRequest is the request body for a new task
type CreateTaskRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Deadline    string   `json:"deadline"`
	Status      string   `json:"status" validate:"omitempty,oneof=0 1 2"`
	Priority    string   `json:"priority" validate:"omitempty,oneof=0 1 2"`
	Assignees   []string `json:"assignees"`
}

// EditTaskRequest carries only the fields to change
type EditTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=0 1 2"`
	Deadline    *string `json:"deadline"`
	Status      *string `json:"status" validate:"omitempty,oneof=0 1 2"`
}

// AddAssigneesRequest assigns users to a task
type AddAssigneesRequest struct {
	UserIDs []string `json:"user_ids"`
}

// Create creates a task in a project the caller participates in
// POST /task/project/:project_id/create-task
func (h *TaskHandler) Create(c *fiber.Ctx) error {
	var req CreateTaskRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	projectID := c.Params("project_id")
	task, err := h.taskService.Create(c.UserContext(), middleware.Actor(c), projectID, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
		Status:      req.Status,
		Priority:    req.Priority,
		Assignees:   req.Assignees,
	})
	if err != nil {
		return respondError(c, err)
	}

	log.Printf("✅ [TASK] Created %q in project %s", task.Title, projectID)
	return c.Status(fiber.StatusCreated).JSON(task)
}

// Edit changes the provided fields of a task
// PUT /task/:task_id/edit
func (h *TaskHandler) Edit(c *fiber.Ctx) error {
	var req EditTaskRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	task, err := h.taskService.Edit(c.UserContext(), middleware.Actor(c), c.Params("task_id"), services.EditTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Deadline:    req.Deadline,
		Status:      req.Status,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(task)
}

// Delete removes a task from its project
// DELETE /task/project/:project_id/:task_id
func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	projectID := c.Params("project_id")
	taskID := c.Params("task_id")

	if err := h.taskService.Delete(c.UserContext(), middleware.Actor(c), projectID, taskID); err != nil {
		return respondError(c, err)
	}

	log.Printf("🗑️  [TASK] Deleted %s from project %s", taskID, projectID)
	return c.JSON(fiber.Map{
		"message": "Task deleted",
		"task_id": taskID,
	})
}

// AddAssignees assigns more users to a task
// POST /task/:task_id/add-assignee
func (h *TaskHandler) AddAssignees(c *fiber.Ctx) error {
	var req AddAssigneesRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	task, err := h.taskService.AddAssignees(c.UserContext(), middleware.Actor(c), c.Params("task_id"), req.UserIDs)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(task)
}

// ListByProject returns the tasks of a project
// GET /task/project/:project_id/view-tasks
func (h *TaskHandler) ListByProject(c *fiber.Ctx) error {
	tasks, err := h.taskService.ListByProject(c.UserContext(), c.Params("project_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tasks)
}

// ListCreated returns tasks the caller created
// GET /task/my-created-tasks
func (h *TaskHandler) ListCreated(c *fiber.Ctx) error {
	tasks, err := h.taskService.ListCreated(c.UserContext(), middleware.Actor(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tasks)
}

// ListAssigned returns tasks assigned to the caller
// GET /task/my-assigned-tasks
func (h *TaskHandler) ListAssigned(c *fiber.Ctx) error {
	tasks, err := h.taskService.ListAssigned(c.UserContext(), middleware.Actor(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tasks)
}

// Assignees returns the users assigned to a task
// GET /task/:task_id/assignees
func (h *TaskHandler) Assignees(c *fiber.Ctx) error {
	users, err := h.taskService.Assignees(c.UserContext(), c.Params("task_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// History returns the audit trail of a task, newest first
// GET /task/:task_id/history
func (h *TaskHandler) History(c *fiber.Ctx) error {
	entries, err := h.taskService.History(c.UserContext(), c.Params("task_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}
