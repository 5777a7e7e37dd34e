// Package service provides application-level services that orchestrate domain services and repositories
package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/turtacn/authsvc/internal/application/dto"
	"github.com/turtacn/authsvc/internal/domain/models"
	"github.com/turtacn/authsvc/internal/domain/repository"
	domainService "github.com/turtacn/authsvc/internal/domain/service"
	"github.com/turtacn/authsvc/pkg/constants"
	"github.com/turtacn/authsvc/pkg/errors"
	"github.com/turtacn/authsvc/pkg/logger"
	"github.com/turtacn/authsvc/pkg/utils"
)

// AuthAppService defines the interface for the authentication application service
type AuthAppService interface {
	// SignIn verifies the credentials and issues a new token
	SignIn(ctx context.Context, email, password string) (*dto.AuthResponse, error)

	// SignUp registers a new user and issues its first token
	SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.AuthResponse, error)

	// Logout revokes the bearer token carried by the Authorization header value
	Logout(ctx context.Context, authorizationHeader string) error

	// CurrentUser returns the user identified by subject (an email)
	CurrentUser(ctx context.Context, subject string) (*dto.UserResponse, error)
}

// authAppServiceImpl is the concrete implementation of AuthAppService
type authAppServiceImpl struct {
	users     repository.UserRepository
	hasher    domainService.PasswordHasher
	roles     domainService.RolePolicy
	lifecycle *domainService.TokenLifecycleManager
	metrics   domainService.Metrics
	audit     domainService.AuditService
	tracer    trace.Tracer
	logger    logger.Logger
}

// AuthAppOption configures optional collaborators of the service
type AuthAppOption func(*authAppServiceImpl)

// WithAuditService records sign-in, sign-up and logout outcomes to audit
func WithAuditService(audit domainService.AuditService) AuthAppOption {
	return func(s *authAppServiceImpl) {
		if audit != nil {
			s.audit = audit
		}
	}
}

// NewAuthAppService creates a new instance of AuthAppService
func NewAuthAppService(
	users repository.UserRepository,
	hasher domainService.PasswordHasher,
	roles domainService.RolePolicy,
	lifecycle *domainService.TokenLifecycleManager,
	metrics domainService.Metrics,
	log logger.Logger,
	opts ...AuthAppOption,
) AuthAppService {
	if roles == nil {
		roles = domainService.StaticRolePolicy{Role: constants.RoleAdmin}
	}
	if metrics == nil {
		metrics = domainService.NoopMetrics{}
	}
	s := &authAppServiceImpl{
		users:     users,
		hasher:    hasher,
		roles:     roles,
		lifecycle: lifecycle,
		metrics:   metrics,
		audit:     domainService.NoopAuditService{},
		tracer:    otel.Tracer(constants.ServiceName),
		logger:    log.WithComponent("auth_app_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignIn implements credential verification and token issuance
func (s *authAppServiceImpl) SignIn(ctx context.Context, email, password string) (resp *dto.AuthResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthAppService.SignIn")
	defer func() { s.finish(span, err) }()
	var userID string
	defer func() { s.record(ctx, models.AuditSignIn, email, userID, err) }()

	// 1. Look up the user
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		s.metrics.RecordSignIn(domainService.ResultFailure)
		return nil, err
	}
	if user == nil {
		s.logger.Info(ctx, "Sign-in for unknown email")
		s.metrics.RecordSignIn(domainService.ResultFailure)
		return nil, errors.ErrEmailNotFound(email)
	}

	userID = user.ID

	// 2. Verify the password. bcrypt ignores bytes past the limit, so longer
	// input never reaches the hasher.
	if len(password) > constants.MaxPasswordBytes || !s.hasher.Verify(user.Password, password) {
		s.logger.Warn(ctx, "Sign-in with invalid password", logger.String("user_id", user.ID))
		s.metrics.RecordSignIn(domainService.ResultFailure)
		return nil, errors.ErrUnauthorized(constants.MsgPasswordNotValid)
	}

	// 3. Issue a token, revoking the previous ones
	token, err := s.lifecycle.Issue(ctx, user)
	if err != nil {
		s.logger.Error(ctx, "Failed to issue token", err, logger.String("user_id", user.ID))
		s.metrics.RecordSignIn(domainService.ResultFailure)
		return nil, err
	}

	s.metrics.RecordSignIn(domainService.ResultSuccess)
	s.logger.Info(ctx, "User signed in", logger.String("user_id", user.ID))
	return &dto.AuthResponse{JWT: token, User: dto.NewUserResponse(user)}, nil
}

// SignUp implements user registration. The checks run in a fixed order so
// that the first failing rule decides the error.
func (s *authAppServiceImpl) SignUp(ctx context.Context, req *dto.SignUpRequest) (resp *dto.AuthResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthAppService.SignUp")
	defer func() { s.finish(span, err) }()
	var userID string
	defer func() { s.record(ctx, models.AuditSignUp, req.Email, userID, err) }()
	defer func() {
		if err != nil {
			s.metrics.RecordSignUp(domainService.ResultFailure)
		} else {
			s.metrics.RecordSignUp(domainService.ResultSuccess)
		}
	}()

	// 1. Email must be free
	existing, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.ErrEmailAlreadyInUse(req.Email)
	}

	// 2. Email syntax
	if !utils.ValidateEmail(req.Email) {
		return nil, errors.ErrPreconditionFailed(constants.MsgEmailNotValid)
	}

	// 3. Password rules
	if !utils.ValidatePassword(req.Password) {
		return nil, errors.ErrPreconditionFailed(constants.MsgPasswordMustRespectRules)
	}

	// 4. Persist and issue
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:     req.Email,
		Password:  hash,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		TeamName:  strings.TrimSpace(req.TeamName),
	}
	user.Role = s.roles.AssignRole(ctx, user)

	// A concurrent sign-up for the same email surfaces here as "already in use".
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	userID = user.ID

	token, err := s.lifecycle.Issue(ctx, user)
	if err != nil {
		s.logger.Error(ctx, "Failed to issue token for new user", err, logger.String("user_id", user.ID))
		return nil, err
	}

	s.logger.Info(ctx, "User registered",
		logger.String("user_id", user.ID),
		logger.String("role", string(user.Role)),
	)
	return &dto.AuthResponse{JWT: token, User: dto.NewUserResponse(user)}, nil
}

// Logout delegates to the token lifecycle
func (s *authAppServiceImpl) Logout(ctx context.Context, authorizationHeader string) (err error) {
	ctx, span := s.tracer.Start(ctx, "AuthAppService.Logout")
	defer func() { s.finish(span, err) }()
	defer func() { s.record(ctx, models.AuditLogout, "", "", err) }()

	if err := s.lifecycle.Logout(ctx, authorizationHeader); err != nil {
		return err
	}
	s.logger.Info(ctx, "User logged out")
	return nil
}

// CurrentUser returns the authenticated user's profile
func (s *authAppServiceImpl) CurrentUser(ctx context.Context, subject string) (*dto.UserResponse, error) {
	user, err := s.users.FindByEmail(ctx, subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.ErrEmailNotFound(subject)
	}
	return dto.NewUserResponse(user), nil
}

// record writes an audit event. Audit failures are logged and never fail the request.
func (s *authAppServiceImpl) record(ctx context.Context, typ models.AuditEventType, subject, userID string, err error) {
	event := models.AuditEvent{
		EventType: typ,
		Subject:   subject,
		UserID:    userID,
		Success:   err == nil,
	}
	if err != nil {
		event.Reason = err.Error()
	}
	if requestID, ok := ctx.Value(constants.ContextKeyRequestID).(string); ok {
		event.RequestID = requestID
	}
	if auditErr := s.audit.LogEvent(ctx, event); auditErr != nil {
		s.logger.Warn(ctx, "Failed to record audit event",
			logger.String("event_type", string(typ)),
			logger.Error(auditErr),
		)
	}
}

func (s *authAppServiceImpl) finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Int("http.status_code", errors.HTTPStatus(err)))
	}
	span.End()
}
