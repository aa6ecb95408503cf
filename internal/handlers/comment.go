package handlers

import (
	"io"
	"log"
	"strconv"
	"strings"

	"collabhub/internal/middleware"
	"collabhub/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CommentHandler handles project comments, attachments and unread counters
type CommentHandler struct {
	commentService      *services.CommentService
	notificationService *services.NotificationService
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(commentService *services.CommentService, notificationService *services.NotificationService) *CommentHandler {
	return &CommentHandler{
		commentService:      commentService,
		notificationService: notificationService,
	}
}

// SendCommentRequest holds the text fields of a comment. The attachment
// travels as the multipart part named "file".
type SendCommentRequest struct {
	ProjectID string `json:"project_id" form:"project_id" validate:"required"`
	Content   string `json:"content" form:"content"`
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm)
}

// readAttachment loads the optional file part of a multipart request
func readAttachment(c *fiber.Ctx) (*services.Attachment, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	header, err := c.FormFile("file")
	if err != nil {
		// no file part
		return nil, nil
	}

	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &services.Attachment{
		Name:        header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Data:        data,
	}, nil
}

// Send posts a comment, optionally with a file
// POST /comment/send-message
func (h *CommentHandler) Send(c *fiber.Ctx) error {
	var req SendCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	attachment, err := readAttachment(c)
	if err != nil {
		log.Printf("❌ [COMMENT] Failed to read upload: %v", err)
		return badRequest(c, "Failed to read uploaded file")
	}

	if strings.TrimSpace(req.Content) == "" && attachment == nil {
		return badRequest(c, "content or file is required")
	}
	if err := checkStruct(&req); err != nil {
		return respondError(c, err)
	}

	actor := middleware.Actor(c)
	comment, err := h.commentService.Send(c.UserContext(), actor, services.SendCommentInput{
		ProjectID: req.ProjectID,
		Content:   req.Content,
		File:      attachment,
	})
	if err != nil {
		return respondError(c, err)
	}

	if attachment != nil {
		log.Printf("📎 [COMMENT] %s attached %s (%d bytes) to project %s", actor.Email, comment.FileName, comment.FileSize, req.ProjectID)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// List returns the comments of a project
// GET /comment/project/:project_id
func (h *CommentHandler) List(c *fiber.Ctx) error {
	comments, err := h.commentService.List(c.UserContext(), middleware.Actor(c), c.Params("project_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// Download streams the file attached to a comment
// GET /comment/download/:id
func (h *CommentHandler) Download(c *fiber.Ctx) error {
	file, err := h.commentService.Download(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentLength, strconv.Itoa(len(file.Data)))
	c.Set(fiber.HeaderContentDisposition, "attachment; filename=\""+file.Name+"\"")
	return c.Send(file.Data)
}

// Unread returns the caller's unread counter for one project
// GET /comment/unread/:project_id
func (h *CommentHandler) Unread(c *fiber.Ctx) error {
	n, err := h.notificationService.Unread(c.UserContext(), middleware.Actor(c).ID, c.Params("project_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(n)
}

// Summary returns the caller's unread counters across projects
// GET /comment/unread
func (h *CommentHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.notificationService.Summary(c.UserContext(), middleware.Actor(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// MarkRead resets the caller's unread counter for a project
// PUT /comment/mark-read/:project_id
func (h *CommentHandler) MarkRead(c *fiber.Ctx) error {
	projectID := c.Params("project_id")
	if err := h.notificationService.MarkRead(c.UserContext(), middleware.Actor(c).ID, projectID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":    "Marked as read",
		"project_id": projectID,
	})
}
