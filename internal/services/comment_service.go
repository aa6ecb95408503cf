package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"collabhub/internal/logging"
	"collabhub/internal/models"
	"collabhub/internal/security"

	"github.com/google/uuid"
)

// DefaultMaxUploadBytes caps comment attachments when no limit is configured
const DefaultMaxUploadBytes int64 = 10 << 20

// CommentService records project comments and their attachments
type CommentService struct {
	stores        *Stores
	projects      *ProjectService
	notifications *NotificationService
	maxUpload     int64
	logger        *slog.Logger
	now           func() time.Time
}

// NewCommentService creates a new comment service
func NewCommentService(stores *Stores, projects *ProjectService, notifications *NotificationService, maxUpload int64) *CommentService {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return &CommentService{
		stores:        stores,
		projects:      projects,
		notifications: notifications,
		maxUpload:     maxUpload,
		logger:        logging.Component("comments"),
		now:           time.Now,
	}
}

// Attachment is an uploaded file as received at the boundary
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// SendCommentInput is the payload for a new comment
type SendCommentInput struct {
	ProjectID string
	Content   string
	File      *Attachment
}

// FileDownload is a decoded attachment ready to stream
type FileDownload struct {
	Name        string
	ContentType string
	Data        []byte
}

// Send stores a comment and bumps the unread counter of every other
// participant of the project.
func (s *CommentService) Send(ctx context.Context, caller Actor, in SendCommentInput) (*models.Comment, error) {
	content := strings.TrimSpace(in.Content)
	hasFile := in.File != nil && len(in.File.Data) > 0
	if content == "" && !hasFile {
		return nil, ValidationError("content or file is required")
	}

	project, err := s.projects.RequireParticipant(ctx, in.ProjectID, caller)
	if err != nil {
		return nil, err
	}

	now := s.now()
	comment := &models.Comment{
		ID:        uuid.NewString(),
		ProjectID: project.ID,
		CreatorID: caller.ID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if hasFile {
		size := int64(len(in.File.Data))
		if size > s.maxUpload {
			return nil, ValidationError("file exceeds the %d byte limit", s.maxUpload).WithDetail("max_bytes", s.maxUpload)
		}
		contentType := in.File.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		comment.FileName = security.SanitizeFileName(in.File.Name)
		comment.FileType = contentType
		comment.FileSize = size
		comment.FileData = base64.StdEncoding.EncodeToString(in.File.Data)
		comment.FilePath = "/comment/download/" + comment.ID
	}

	if err := s.stores.Comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	participants, err := s.projects.Participants(ctx, project)
	if err != nil {
		return nil, err
	}
	recipients := make([]string, 0, len(participants))
	for _, id := range participants {
		if id != caller.ID {
			recipients = append(recipients, id)
		}
	}
	if err := s.notifications.CommentPosted(ctx, project.ID, comment.ID, recipients); err != nil {
		s.logger.Warn("failed to update unread counters", "comment_id", comment.ID, "error", err)
	}

	GetMetrics().CommentSent(hasFile)
	return comment, nil
}

// List returns a project's comments without attachment bytes
func (s *CommentService) List(ctx context.Context, caller Actor, projectID string) ([]*models.Comment, error) {
	if _, err := s.projects.RequireParticipant(ctx, projectID, caller); err != nil {
		return nil, err
	}
	return s.stores.Comments.ListByProject(ctx, projectID)
}

// Download decodes the attachment of a comment
func (s *CommentService) Download(ctx context.Context, commentID string) (*FileDownload, error) {
	comment, err := s.stores.Comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, notFound(err, "file not found")
	}
	if !comment.HasFile() {
		return nil, NotFoundError("file not found")
	}

	data, err := base64.StdEncoding.DecodeString(comment.FileData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode attachment %s: %w", comment.ID, err)
	}
	return &FileDownload{
		Name:        comment.FileName,
		ContentType: comment.FileType,
		Data:        data,
	}, nil
}
