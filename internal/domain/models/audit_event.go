package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditEventType names what happened to an account.
type AuditEventType string

const (
	AuditSignIn AuditEventType = "auth.signin"
	AuditSignUp AuditEventType = "auth.signup"
	AuditLogout AuditEventType = "auth.logout"
)

// AuditEvent is one entry of the authentication audit trail.
// AuditEvent 是认证审计轨迹中的一条记录。
type AuditEvent struct {
	ID        string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	EventType AuditEventType `json:"eventType" gorm:"size:64;index;not null"`

	// Subject is the email the request was about; it may not belong to a user.
	// Subject 是请求涉及的邮箱，不一定对应已有用户。
	Subject string `json:"subject" gorm:"size:255;index"`
	UserID  string `json:"userId,omitempty" gorm:"size:36"`

	Success   bool      `json:"success"`
	Reason    string    `json:"reason,omitempty" gorm:"size:255"`
	RequestID string    `json:"requestId,omitempty" gorm:"size:64"`
	Timestamp time.Time `json:"timestamp" gorm:"index;not null"`

	// Signature is an HMAC over the other fields, empty when signing is off.
	// Signature 是对其余字段的 HMAC，未启用签名时为空。
	Signature string `json:"signature,omitempty" gorm:"size:64"`
}

// TableName overrides the default table name.
func (AuditEvent) TableName() string {
	return "audit_events"
}

// BeforeCreate fills the id and timestamp when absent.
func (e *AuditEvent) BeforeCreate(tx *gorm.DB) error {
	e.Prepare()
	return nil
}

// Prepare assigns an id and timestamp if they are unset.
func (e *AuditEvent) Prepare() {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
}
