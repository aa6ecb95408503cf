package models

import (
	"time"
)

// ProjectStatus marks whether a project shows up in normal listings
type ProjectStatus string

const (
	ProjectStatusActive   ProjectStatus = "active"
	ProjectStatusArchived ProjectStatus = "archived"
)

// Project is a unit of work owned by the user whose email is CreatorID.
// CreatorID is an email, not a user id.
type Project struct {
	ID          string        `bson:"_id" json:"id"`
	Name        string        `bson:"name" json:"name"`
	Description string        `bson:"description" json:"description"`
	Deadline    *time.Time    `bson:"deadline,omitempty" json:"deadline,omitempty"`
	CreatorID   string        `bson:"creatorId" json:"creator_id"`
	IsApproved  bool          `bson:"isApproved" json:"is_approved"`
	Status      ProjectStatus `bson:"status" json:"status"`
	CreatedAt   time.Time     `bson:"createdAt" json:"created_at"`
	UpdatedAt   time.Time     `bson:"updatedAt" json:"updated_at"`
}

// IsArchived reports whether the project was archived by an admin
func (p *Project) IsArchived() bool {
	return p.Status == ProjectStatusArchived
}

// ProjectResponse is a project with its tag names flattened in
type ProjectResponse struct {
	*Project
	Tags []string `json:"tags"`
}

// ApprovalStatus is an admin decision on a project
type ApprovalStatus string

const (
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// ProjectApproval records one admin decision
type ProjectApproval struct {
	ID           string         `bson:"_id" json:"id"`
	ProjectID    string         `bson:"projectId" json:"project_id"`
	AdminID      string         `bson:"adminId" json:"admin_id"`
	Status       ApprovalStatus `bson:"status" json:"status"`
	ApprovalDate time.Time      `bson:"approvalDate" json:"approval_date"`
}

// ProjectUser is the membership join between a project and a user
type ProjectUser struct {
	ID        string    `bson:"_id" json:"id"`
	ProjectID string    `bson:"projectId" json:"project_id"`
	UserID    string    `bson:"userId" json:"user_id"`
	JoinedAt  time.Time `bson:"joinedAt" json:"joined_at"`
}

// ProjectMember is a membership row joined with the member's identity
type ProjectMember struct {
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	JoinedAt time.Time `json:"joined_at"`
}

// ProjectTag is one tag attached to a project
type ProjectTag struct {
	ID        string    `bson:"_id" json:"id"`
	ProjectID string    `bson:"projectId" json:"project_id"`
	TagName   string    `bson:"tagName" json:"tag_name"`
	TaggedAt  time.Time `bson:"taggedAt" json:"tagged_at"`
}

// ProjectStatistic is the derived task rollup for a project
type ProjectStatistic struct {
	ID                   string    `bson:"_id" json:"id"`
	ProjectID            string    `bson:"projectId" json:"project_id"`
	TotalTasks           int       `bson:"totalTasks" json:"total_tasks"`
	CompletedTasks       int       `bson:"completedTasks" json:"completed_tasks"`
	OverdueTasks         int       `bson:"overdueTasks" json:"overdue_tasks"`
	CompletionPercentage float64   `bson:"completionPercentage" json:"completion_percentage"`
	LastUpdated          time.Time `bson:"lastUpdated" json:"last_updated"`
}

// CompletionPercentage returns completed/total*100, or 0 for an empty project
func CompletionPercentage(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}
