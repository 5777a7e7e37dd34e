package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/authsvc/internal/domain/models"
	"github.com/turtacn/authsvc/internal/domain/repository"
	"github.com/turtacn/authsvc/pkg/constants"
	apperrors "github.com/turtacn/authsvc/pkg/errors"
	"github.com/turtacn/authsvc/pkg/logger"
)

var _ repository.LedgerRepository = (*LedgerRepository)(nil)

const (
	entryKeyPrefix     = "ledger:entry:"
	tokenKeyPrefix     = "ledger:token:"
	userIndexPrefix    = "ledger:idx:user:"
	revokedIndexPrefix = "ledger:idx:revoked:"
	expiredIndexPrefix = "ledger:idx:expired:"
)

var allFlags = []constants.LedgerFlag{constants.LedgerFlagUnset, constants.LedgerFlagSet}

// LedgerRepository stores ledger entries as hashes with secondary index sets.
// Entries live until logout deletes them. With a positive retention the entry
// and token keys also expire, and every index membership of an expired entry
// is swept from the user's index on the next lookup for that user.
type LedgerRepository struct {
	client    redis.UniversalClient
	retention time.Duration
	log       logger.Logger
}

// NewLedgerRepository creates the repository. A zero retention keeps entries forever.
func NewLedgerRepository(client redis.UniversalClient, retention time.Duration, log logger.Logger) *LedgerRepository {
	return &LedgerRepository{
		client:    client,
		retention: retention,
		log:       log.WithComponent("ledger_repo"),
	}
}

func entryKey(id string) string { return entryKeyPrefix + id }

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return tokenKeyPrefix + hex.EncodeToString(sum[:])
}

func userIndexKey(userID string) string                { return userIndexPrefix + userID }
func revokedIndexKey(flag constants.LedgerFlag) string { return revokedIndexPrefix + string(flag) }
func expiredIndexKey(flag constants.LedgerFlag) string { return expiredIndexPrefix + string(flag) }

// FindByToken returns the entry for token, or (nil, nil) when absent.
func (r *LedgerRepository) FindByToken(ctx context.Context, token string) (*models.LedgerEntry, error) {
	id, err := r.client.Get(ctx, tokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, "failed to look up ledger token")
	}

	entry, err := r.loadEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil || entry.Token != token {
		return nil, nil
	}
	return entry, nil
}

// FindByUserRevokedExpired returns the entries of userID whose flags equal revoked and expired.
func (r *LedgerRepository) FindByUserRevokedExpired(ctx context.Context, userID string, revoked, expired constants.LedgerFlag) ([]*models.LedgerEntry, error) {
	userKey := userIndexKey(userID)
	revokedKey := revokedIndexKey(revoked)
	expiredKey := expiredIndexKey(expired)

	if r.retention > 0 {
		if err := r.sweepExpired(ctx, userKey); err != nil {
			return nil, err
		}
	}

	ids, err := r.client.SInter(ctx, userKey, revokedKey, expiredKey).Result()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to query ledger index")
	}
	if len(ids) == 0 {
		return nil, nil
	}
	sort.Strings(ids)

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, entryKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, apperrors.Wrap(err, "failed to load ledger entries")
	}

	entries := make([]*models.LedgerEntry, 0, len(ids))
	var dangling []string
	for i, cmd := range cmds {
		entry, err := scanEntry(cmd)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			dangling = append(dangling, ids[i])
			continue
		}
		entries = append(entries, entry)
	}

	if len(dangling) > 0 {
		r.removeDangling(ctx, userKey, dangling)
	}
	return entries, nil
}

// Save upserts a single entry.
func (r *LedgerRepository) Save(ctx context.Context, entry *models.LedgerEntry) error {
	return r.SaveAll(ctx, []*models.LedgerEntry{entry})
}

// SaveAll upserts entries in one MULTI/EXEC block.
func (r *LedgerRepository) SaveAll(ctx context.Context, entries []*models.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	pipe := r.client.TxPipeline()
	for _, entry := range entries {
		if entry.ID == "" || entry.Token == "" {
			return apperrors.ErrInternal("ledger entry requires an id and a token")
		}
		r.queueSave(ctx, pipe, entry)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.Wrap(err, "failed to save ledger entries")
	}
	return nil
}

func (r *LedgerRepository) queueSave(ctx context.Context, pipe redis.Pipeliner, entry *models.LedgerEntry) {
	key := entryKey(entry.ID)
	revoked := normalizeFlag(entry.Revoked)
	expired := normalizeFlag(entry.Expired)

	pipe.HSet(ctx, key,
		"id", entry.ID,
		"token", entry.Token,
		"user_id", entry.UserID,
		"revoked", string(revoked),
		"expired", string(expired),
	)
	// zero expiration means no TTL
	pipe.Set(ctx, tokenKey(entry.Token), entry.ID, r.retention)
	if r.retention > 0 {
		pipe.Expire(ctx, key, r.retention)
	}

	pipe.SAdd(ctx, userIndexKey(entry.UserID), entry.ID)
	for _, flag := range allFlags {
		pipe.SRem(ctx, revokedIndexKey(flag), entry.ID)
		pipe.SRem(ctx, expiredIndexKey(flag), entry.ID)
	}
	pipe.SAdd(ctx, revokedIndexKey(revoked), entry.ID)
	pipe.SAdd(ctx, expiredIndexKey(expired), entry.ID)
}

// DeleteByToken removes the entry recorded for token. Absent tokens are a no-op.
func (r *LedgerRepository) DeleteByToken(ctx context.Context, token string) error {
	tKey := tokenKey(token)
	id, err := r.client.Get(ctx, tKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return apperrors.Wrap(err, "failed to look up ledger token")
	}

	userID, err := r.client.HGet(ctx, entryKey(id), "user_id").Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return apperrors.Wrap(err, "failed to load ledger entry")
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, entryKey(id), tKey)
	if userID != "" {
		pipe.SRem(ctx, userIndexKey(userID), id)
	}
	for _, flag := range allFlags {
		pipe.SRem(ctx, revokedIndexKey(flag), id)
		pipe.SRem(ctx, expiredIndexKey(flag), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.Wrap(err, "failed to delete ledger entry")
	}

	r.log.Debug(ctx, "Ledger entry deleted", logger.String("entry_id", id))
	return nil
}

func (r *LedgerRepository) loadEntry(ctx context.Context, id string) (*models.LedgerEntry, error) {
	return scanEntry(r.client.HGetAll(ctx, entryKey(id)))
}

// scanEntry returns nil for a missing hash.
func scanEntry(cmd *redis.MapStringStringCmd) (*models.LedgerEntry, error) {
	fields, err := cmd.Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, "failed to load ledger entry")
	}
	if len(fields) == 0 {
		return nil, nil
	}

	var entry models.LedgerEntry
	if err := cmd.Scan(&entry); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode ledger entry")
	}
	return &entry, nil
}

// sweepExpired drops every member of the user index whose entry hash is gone,
// whatever its flags.
func (r *LedgerRepository) sweepExpired(ctx context.Context, userKey string) error {
	ids, err := r.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return apperrors.Wrap(err, "failed to read ledger user index")
	}
	if len(ids) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Exists(ctx, entryKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.Wrap(err, "failed to check ledger entries")
	}

	var gone []string
	for i, cmd := range cmds {
		if cmd.Val() == 0 {
			gone = append(gone, ids[i])
		}
	}
	if len(gone) > 0 {
		r.removeDangling(ctx, userKey, gone)
	}
	return nil
}

func (r *LedgerRepository) removeDangling(ctx context.Context, userKey string, ids []string) {
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}

	pipe := r.client.Pipeline()
	pipe.SRem(ctx, userKey, members...)
	for _, flag := range allFlags {
		pipe.SRem(ctx, revokedIndexKey(flag), members...)
		pipe.SRem(ctx, expiredIndexKey(flag), members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		r.log.Warn(ctx, "Failed to remove dangling ledger index members", logger.Error(err))
		return
	}
	r.log.Debug(ctx, "Removed dangling ledger index members", logger.Int("count", len(ids)))
}

func normalizeFlag(flag constants.LedgerFlag) constants.LedgerFlag {
	if flag == constants.LedgerFlagSet {
		return constants.LedgerFlagSet
	}
	return constants.LedgerFlagUnset
}
