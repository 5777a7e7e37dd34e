package service

import (
	"context"

	"github.com/turtacn/authsvc/internal/domain/models"
	"github.com/turtacn/authsvc/internal/domain/repository"
	"github.com/turtacn/authsvc/pkg/constants"
	"github.com/turtacn/authsvc/pkg/errors"
	"github.com/turtacn/authsvc/pkg/logger"
)

// RevocationLedger tracks which issued tokens are still usable.
// Every call goes to the store; nothing is cached.
type RevocationLedger struct {
	repo repository.LedgerRepository
	log  logger.Logger
}

// NewRevocationLedger creates a ledger on top of repo.
func NewRevocationLedger(repo repository.LedgerRepository, log logger.Logger) *RevocationLedger {
	return &RevocationLedger{
		repo: repo,
		log:  log.WithComponent("revocation_ledger"),
	}
}

// FindByToken returns the entry recorded for token, or nil when there is none.
func (l *RevocationLedger) FindByToken(ctx context.Context, token string) (*models.LedgerEntry, error) {
	entry, err := l.repo.FindByToken(ctx, token)
	if err != nil {
		return nil, storeError(err, "failed to look up ledger entry")
	}
	return entry, nil
}

// FindValidForUser returns every entry of userID with neither flag set.
func (l *RevocationLedger) FindValidForUser(ctx context.Context, userID string) ([]*models.LedgerEntry, error) {
	entries, err := l.repo.FindByUserRevokedExpired(ctx, userID, constants.LedgerFlagUnset, constants.LedgerFlagUnset)
	if err != nil {
		return nil, storeError(err, "failed to list valid ledger entries")
	}
	return entries, nil
}

// Save upserts a single entry.
func (l *RevocationLedger) Save(ctx context.Context, entry *models.LedgerEntry) error {
	if err := l.repo.Save(ctx, entry); err != nil {
		return storeError(err, "failed to save ledger entry")
	}
	return nil
}

// SaveAll upserts entries. An empty slice is a no-op.
func (l *RevocationLedger) SaveAll(ctx context.Context, entries []*models.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := l.repo.SaveAll(ctx, entries); err != nil {
		return storeError(err, "failed to save ledger entries")
	}
	return nil
}

// RevokeAllForUser invalidates every valid entry of userID and returns how many were changed.
func (l *RevocationLedger) RevokeAllForUser(ctx context.Context, userID string) (int, error) {
	entries, err := l.FindValidForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	for _, entry := range entries {
		entry.Invalidate()
	}
	if err := l.SaveAll(ctx, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// DeleteByToken removes the entry recorded for token, if any.
func (l *RevocationLedger) DeleteByToken(ctx context.Context, token string) error {
	if err := l.repo.DeleteByToken(ctx, token); err != nil {
		return storeError(err, "failed to delete ledger entry")
	}
	return nil
}

func storeError(err error, msg string) error {
	if _, ok := errors.AsAppError(err); ok {
		return err
	}
	return errors.Wrap(err, msg)
}
