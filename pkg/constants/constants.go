// Package constants defines system-wide constants for the auth service.
// This package provides type-safe constant definitions used across all modules.
package constants

import "time"

// ================================================================================
// Service Identity
// ================================================================================

const (
	// ServiceName is reported in traces, metrics and logs
	ServiceName = "authsvc"

	// MetricsNamespace prefixes every Prometheus metric
	MetricsNamespace = "authsvc"
)

// ================================================================================
// Token Constants
// ================================================================================

const (
	// AuthorizationHeader is the HTTP header carrying the bearer credential
	AuthorizationHeader = "Authorization"

	// BearerPrefix must precede the credential in the Authorization header
	BearerPrefix = "Bearer "

	// DefaultTokenTTL is used when the configuration does not set jwt.expiration
	DefaultTokenTTL = 24 * time.Hour

	// MinSecretKeyBytes is the minimum decoded length of the HS256 signing secret
	MinSecretKeyBytes = 32

	// MaxPasswordBytes is the longest password bcrypt compares without truncating
	MaxPasswordBytes = 72
)

// ================================================================================
// Ledger Flag Constants
// ================================================================================

// LedgerFlag is the stored representation of a ledger entry's revoked/expired flag
type LedgerFlag string

const (
	// LedgerFlagUnset marks a flag that has not been set
	LedgerFlagUnset LedgerFlag = "0"

	// LedgerFlagSet marks a flag that has been set
	LedgerFlagSet LedgerFlag = "1"
)

// ================================================================================
// Role Constants
// ================================================================================

// Role is the label carried by a user record
type Role string

const (
	// RoleAdmin is the role assigned by the default role policy
	RoleAdmin Role = "ADMIN"

	// RoleUser is a plain user role
	RoleUser Role = "USER"
)

// ================================================================================
// User-Facing Messages
// ================================================================================

const (
	MsgEmailNotFound            = "Email: %s not found."
	MsgEmailAlreadyInUse        = "The email %s is already in use."
	MsgEmailNotValid            = "Email not valid."
	MsgPasswordNotValid         = "Password not valid."
	MsgPasswordMustRespectRules = "Password must respect rules."
	MsgAccessDenied             = "Access denied."
	MsgMissingAuthHeader        = "Missing or invalid authorization header."
	MsgLogoutSuccess            = "User has been successfully logged out."

	MsgInvalidJWTSignature   = "Invalid JWT signature."
	MsgInvalidJWTToken       = "Invalid JWT token."
	MsgExpiredJWTToken       = "JWT token is expired."
	MsgUnsupportedJWTToken   = "JWT token is unsupported."
	MsgJWTClaimsNullOrEmpty  = "JWT claims string is null or empty."
	MsgInternalError         = "An unexpected error occurred."
	MsgInvalidRequestBody    = "Invalid request body."
	MsgRequestedPathNotFound = "The requested resource was not found."
	MsgTooManyRequests       = "Too many requests."
)

// ================================================================================
// Logging Constants
// ================================================================================

// LogLevel represents the severity level of log messages
type LogLevel string

const (
	// LogLevelDebug is the most verbose logging level
	LogLevelDebug LogLevel = "debug"

	// LogLevelInfo is the standard informational logging level
	LogLevelInfo LogLevel = "info"

	// LogLevelWarn indicates potential issues
	LogLevelWarn LogLevel = "warn"

	// LogLevelError indicates errors that need attention
	LogLevelError LogLevel = "error"

	// LogLevelFatal indicates critical errors that cause service termination
	LogLevelFatal LogLevel = "fatal"
)

// ================================================================================
// Context Keys
// ================================================================================

// ContextKey represents keys used in context.Context
type ContextKey string

const (
	// ContextKeyRequestID is the key for request ID in context
	ContextKeyRequestID ContextKey = "request_id"

	// ContextKeyTraceID is the key for distributed trace ID in context
	ContextKeyTraceID ContextKey = "trace_id"

	// ContextKeySubject is the key for the authenticated subject (user email)
	ContextKeySubject ContextKey = "subject"

	// ContextKeyToken is the key for the raw bearer credential of the request
	ContextKeyToken ContextKey = "token"
)

// ================================================================================
// HTTP Header Constants
// ================================================================================

const (
	// HeaderRequestID carries the request correlation id
	HeaderRequestID = "X-Request-ID"

	// HeaderRateLimitLimit reports the bucket capacity
	HeaderRateLimitLimit = "X-RateLimit-Limit"

	// HeaderRateLimitRemaining reports the requests left in the bucket
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"

	// HeaderRetryAfter tells a throttled client how many seconds to wait
	HeaderRetryAfter = "Retry-After"
)

// ================================================================================
// Rate Limit Constants
// ================================================================================

const (
	// RateLimitKeyPrefix prefixes every rate limit bucket key in Redis
	RateLimitKeyPrefix = "ratelimit"

	// DefaultRateLimitRequests is the default bucket capacity per client
	DefaultRateLimitRequests = 10

	// DefaultRateLimitWindow is the time a drained bucket takes to refill
	DefaultRateLimitWindow = time.Minute
)

// ================================================================================
// Audit Constants
// ================================================================================

const (
	// AuditTopic is the default Kafka topic for authentication events
	AuditTopic = "authsvc.audit"

	// RevocationTopic carries requests to revoke every session of a user
	RevocationTopic = "authsvc.revocations"

	// RevocationGroupID is shared by all instances so each request is applied once
	RevocationGroupID = "authsvc-revocation-consumers"
)
