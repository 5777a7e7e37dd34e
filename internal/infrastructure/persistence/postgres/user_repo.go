package postgres

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/turtacn/authsvc/internal/domain/models"
	"github.com/turtacn/authsvc/internal/domain/repository"
	"github.com/turtacn/authsvc/pkg/errors"
	"github.com/turtacn/authsvc/pkg/logger"
)

var _ repository.UserRepository = (*UserRepository)(nil)

// UserRepository implements repository.UserRepository with GORM.
type UserRepository struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewUserRepository creates a GORM-backed user repository.
func NewUserRepository(db *gorm.DB, log logger.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: log.WithComponent("user_repo"),
	}
}

// FindByID returns the user with id, or nil when absent.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByEmail returns the user with email, or nil when absent.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error(ctx, "Failed to load user", err, logger.String("query", query))
		return nil, errors.Wrap(err, "failed to load user")
	}
	return &user, nil
}

// Save inserts a new user or updates an existing one.
func (r *UserRepository) Save(ctx context.Context, user *models.User) error {
	var err error
	if user.ID == "" {
		err = r.db.WithContext(ctx).Create(user).Error
	} else {
		err = r.db.WithContext(ctx).Save(user).Error
	}
	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Info(ctx, "Email already registered", logger.String("user_id", user.ID))
			return errors.ErrEmailAlreadyInUse(user.Email).WithCause(err)
		}
		r.logger.Error(ctx, "Failed to save user", err, logger.String("user_id", user.ID))
		return errors.Wrap(err, "failed to save user")
	}

	r.logger.Debug(ctx, "User saved", logger.String("user_id", user.ID))
	return nil
}

func isUniqueViolation(err error) bool {
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
