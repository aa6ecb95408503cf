package models

import (
	"time"
)

// Comment is a project-scoped message, optionally carrying a file
type Comment struct {
	ID        string `bson:"_id" json:"id"`
	ProjectID string `bson:"projectId" json:"project_id"`
	CreatorID string `bson:"creatorId" json:"creator_id"`
	Content   string `bson:"content,omitempty" json:"content,omitempty"`

	// Attachment metadata; FileData is the base64 encoded payload
	FileName string `bson:"fileName,omitempty" json:"file_name,omitempty"`
	FilePath string `bson:"filePath,omitempty" json:"file_path,omitempty"`
	FileSize int64  `bson:"fileSize,omitempty" json:"file_size,omitempty"`
	FileType string `bson:"fileType,omitempty" json:"file_type,omitempty"`
	FileData string `bson:"fileData,omitempty" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updated_at"`
}

// HasFile reports whether a file is attached
func (c *Comment) HasFile() bool {
	return c.FileData != ""
}

// Notification is the unread counter for one (user, project) pair
type Notification struct {
	UserID         string    `bson:"userId" json:"user_id"`
	ProjectID      string    `bson:"projectId" json:"project_id"`
	UnreadMessages int       `bson:"unreadMessages" json:"unread_messages"`
	UpdatedAt      time.Time `bson:"updatedAt" json:"updated_at"`
}

// UnreadSummary is the per-user rollup across all projects
type UnreadSummary struct {
	Total    int             `json:"total"`
	Projects []*Notification `json:"projects"`
}

// NotificationEvent is pushed to connected clients when a counter changes
type NotificationEvent struct {
	Type           string    `json:"type"`
	ProjectID      string    `json:"project_id"`
	CommentID      string    `json:"comment_id,omitempty"`
	UnreadMessages int       `json:"unread_messages"`
	TotalUnread    int       `json:"total_unread"`
	Timestamp      time.Time `json:"timestamp"`
}

// Notification event types
const (
	EventUnread   = "unread"
	EventMarkRead = "mark_read"
	EventSnapshot = "snapshot"
)
