package models

import "time"

// User represents a book club member
type User struct {
	ID            string `json:"id" gorm:"primaryKey"`
	Name          string `json:"name"`
	Nickname      string `json:"nickname"`
	Phone         string `json:"phone" gorm:"index"`
	PhoneVerified bool   `json:"phone_verified" gorm:"default:false"`
	Role          string `json:"role" gorm:"default:member"` // "member", "admin"

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Role constants
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
