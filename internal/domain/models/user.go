// Package models defines the domain models for the auth service.
// This file contains the User domain model.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/turtacn/authsvc/pkg/constants"
	"gorm.io/gorm"
)

// User is a registered account. Email is the login identifier and is unique.
// User 是一个注册账户。Email 是登录标识，且唯一。
type User struct {
	// ID is the stable identifier of the user.
	// ID 是用户的稳定标识符。
	ID string `json:"id" gorm:"primaryKey;type:varchar(36)"`

	// Email is unique across all users and is the token subject.
	// Email 在所有用户中唯一，并作为令牌的主体。
	Email string `json:"email" gorm:"uniqueIndex;not null;size:255"`

	// Password holds the bcrypt hash, never the plaintext. It is never serialized.
	// Password 保存 bcrypt 哈希而不是明文，且从不序列化。
	Password string `json:"-" gorm:"not null"`

	FirstName string `json:"firstName" gorm:"size:100"`
	LastName  string `json:"lastName" gorm:"size:100"`
	Bio       string `json:"bio" gorm:"type:text"`

	// Role is carried as a label only.
	// Role 仅作为标签携带。
	Role constants.Role `json:"role" gorm:"size:32;not null"`

	// TeamName is carried as a label only.
	// TeamName 仅作为标签携带。
	TeamName string `json:"teamName" gorm:"size:100"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName pins the GORM table name.
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns an id before the row is inserted. The email is stored
// exactly as submitted so that lookups by the same string find it.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
