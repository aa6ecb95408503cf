package models

import (
	"time"
)

// UserState is the lifecycle state of a user account
type UserState string

const (
	UserStatePending  UserState = "pending"
	UserStateVerified UserState = "verified"
	UserStateBlocked  UserState = "blocked"
)

// Roles carried in credentials
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a regular account that owns and joins projects
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"passwordHash" json:"-"` // Argon2id hash, never exposed in API
	State        UserState `bson:"state" json:"state"`

	// One-time codes are stored hashed
	RegistrationOTP string     `bson:"registrationOtp,omitempty" json:"-"`
	ResetOTP        string     `bson:"resetOtp,omitempty" json:"-"`
	OTPExpiresAt    *time.Time `bson:"otpExpiresAt,omitempty" json:"-"`

	CreatedAt time.Time  `bson:"createdAt" json:"created_at"`
	LastLogin *time.Time `bson:"lastLogin,omitempty" json:"last_login,omitempty"`
}

// Admin is an operator account. Admins live in their own collection and
// never share an identity with a User.
type Admin struct {
	ID           string     `bson:"_id" json:"id"`
	Name         string     `bson:"name" json:"name"`
	Email        string     `bson:"email" json:"email"`
	PasswordHash string     `bson:"passwordHash" json:"-"`
	CreatedAt    time.Time  `bson:"createdAt" json:"created_at"`
	LastLogin    *time.Time `bson:"lastLogin,omitempty" json:"last_login,omitempty"`
}

// UserResponse is the public representation of a user (credentials stripped)
type UserResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	State     UserState  `json:"state"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		State:     u.State,
		Role:      RoleUser,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}

// ToResponse converts Admin to UserResponse
func (a *Admin) ToResponse() UserResponse {
	return UserResponse{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		State:     UserStateVerified,
		Role:      RoleAdmin,
		CreatedAt: a.CreatedAt,
		LastLogin: a.LastLogin,
	}
}

// UsersToResponse strips credentials from a list of users
func UsersToResponse(users []*User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToResponse())
	}
	return out
}
