package model

import (
	"time"

	"gorm.io/datatypes"
)

// Role is the access tier of a user. Classes reuse it as a minimum tier.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RolePremium Role = "PREMIUM"
	RoleFree    Role = "FREE"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RolePremium, RoleFree}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// User represents a registered learner or administrator.
type User struct {
	ID               uint                      `json:"id" gorm:"primaryKey"`
	Email            string                    `json:"email" gorm:"uniqueIndex;size:191;not null"`
	Username         string                    `json:"username" gorm:"uniqueIndex;size:191;not null"`
	PasswordHash     string                    `json:"-" gorm:"column:password;size:255;not null"` // Never expose in JSON
	Name             string                    `json:"name" gorm:"size:255;not null"`
	LastName         string                    `json:"last_name" gorm:"size:255;not null"`
	Role             Role                      `json:"role" gorm:"type:varchar(20);not null;default:'FREE';index"`
	Verified         bool                      `json:"verified" gorm:"not null;default:false;index"`
	VerificationCode *string                   `json:"-" gorm:"size:16"`
	CodeExpiry       *time.Time                `json:"-"`
	ViewedClasses    datatypes.JSONSlice[uint] `json:"viewed_classes" gorm:"not null"`
	CreatedAt        time.Time                 `json:"created_at"`
	UpdatedAt        time.Time                 `json:"updated_at"`
}

// HasViewed reports whether the class id is already in ViewedClasses.
func (u *User) HasViewed(classID uint) bool {
	for _, id := range u.ViewedClasses {
		if id == classID {
			return true
		}
	}
	return false
}
