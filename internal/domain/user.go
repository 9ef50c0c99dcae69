// Package domain contains persistent entities and identity types. No
// transport or lifecycle logic here.
package domain

import "time"

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

type UserID string

type User struct {
	ID         UserID    `gorm:"primaryKey;size:36;column:user_id" json:"user_id"`
	FullName   string    `gorm:"size:255;not null" json:"full_name"`
	Email      string    `gorm:"size:254;uniqueIndex" json:"email"`
	Role       string    `gorm:"size:20;not null;default:User" json:"role"`
	Department string    `gorm:"size:255" json:"department,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// PublicUser is the wire representation of a user, stripped of anything a
// room mate should not see.
type PublicUser struct {
	ID       UserID `json:"user_id"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, FullName: u.FullName, Role: u.Role}
}

// Principal is the identity resolved from a connection credential at
// handshake time. It is immutable for the lifetime of the connection and
// threaded explicitly through every handler.
type Principal struct {
	ID    UserID
	Name  string
	Admin bool
}
