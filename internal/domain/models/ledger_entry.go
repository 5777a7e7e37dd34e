package models

import (
	"github.com/google/uuid"
	"github.com/turtacn/authsvc/pkg/constants"
)

// LedgerEntry records one issued credential and whether it is still usable.
// LedgerEntry 记录一个已颁发的凭证及其是否仍然可用。
type LedgerEntry struct {
	// ID is the unique identifier of the entry.
	// ID 是条目的唯一标识符。
	ID string `json:"id" redis:"id"`

	// Token is the raw credential string exactly as it was issued.
	// Token 是颁发时的原始凭证字符串。
	Token string `json:"token" redis:"token"`

	// UserID is the owner of the credential.
	// UserID 是凭证的所有者。
	UserID string `json:"user_id" redis:"user_id"`

	Revoked constants.LedgerFlag `json:"revoked" redis:"revoked"`
	Expired constants.LedgerFlag `json:"expired" redis:"expired"`
}

// NewLedgerEntry creates an entry for a freshly issued token with both flags unset.
func NewLedgerEntry(userID, token string) *LedgerEntry {
	return &LedgerEntry{
		ID:      uuid.NewString(),
		Token:   token,
		UserID:  userID,
		Revoked: constants.LedgerFlagUnset,
		Expired: constants.LedgerFlagUnset,
	}
}

// IsValid reports whether neither flag is set.
func (e *LedgerEntry) IsValid() bool {
	return e.Revoked != constants.LedgerFlagSet && e.Expired != constants.LedgerFlagSet
}

// Invalidate sets both flags. Used when a newer token supersedes this one.
func (e *LedgerEntry) Invalidate() {
	e.Revoked = constants.LedgerFlagSet
	e.Expired = constants.LedgerFlagSet
}
