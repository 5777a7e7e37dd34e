package models

import "time"

// Claims is the decoded payload of a session token.
// Claims 是会话令牌解码后的载荷。
type Claims struct {
	// Subject is the email of the user the token was issued to.
	// Subject 是令牌所颁发用户的邮箱。
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time

	// Extra holds every non-registered claim.
	Extra map[string]interface{}
}

// IsExpiredAt reports whether the token is no longer valid at t. A token is invalid from ExpiresAt onwards.
func (c *Claims) IsExpiredAt(t time.Time) bool {
	return !t.Before(c.ExpiresAt)
}
