package errors

import (
	"net/http"

	"github.com/turtacn/authsvc/pkg/constants"
)

// DecodeKind classifies why a presented credential could not be decoded
type DecodeKind string

const (
	DecodeBadSignature      DecodeKind = "bad_signature"
	DecodeMalformed         DecodeKind = "malformed"
	DecodeExpired           DecodeKind = "expired"
	DecodeUnsupportedFormat DecodeKind = "unsupported_format"
	DecodeEmptyOrNull       DecodeKind = "empty_or_null"
)

var decodeMessages = map[DecodeKind]string{
	DecodeBadSignature:      constants.MsgInvalidJWTSignature,
	DecodeMalformed:         constants.MsgInvalidJWTToken,
	DecodeExpired:           constants.MsgExpiredJWTToken,
	DecodeUnsupportedFormat: constants.MsgUnsupportedJWTToken,
	DecodeEmptyOrNull:       constants.MsgJWTClaimsNullOrEmpty,
}

// DecodeError is returned by the token codec. It always carries exactly one kind.
type DecodeError struct {
	Kind  DecodeKind
	cause error
}

// NewDecodeError creates a DecodeError of the given kind
func NewDecodeError(kind DecodeKind, cause error) *DecodeError {
	return &DecodeError{Kind: kind, cause: cause}
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	if msg, ok := decodeMessages[e.Kind]; ok {
		return msg
	}
	return constants.MsgInvalidJWTToken
}

// Unwrap returns the parser error that caused the failure
func (e *DecodeError) Unwrap() error {
	return e.cause
}

// HTTPStatus maps every decode failure to 401
func (e *DecodeError) HTTPStatus() int {
	return http.StatusUnauthorized
}

// AsDecodeError extracts a DecodeError from the error chain
func AsDecodeError(err error) (*DecodeError, bool) {
	var decErr *DecodeError
	if As(err, &decErr) {
		return decErr, true
	}
	return nil, false
}

// IsDecodeKind reports whether err is a DecodeError of the given kind
func IsDecodeKind(err error, kind DecodeKind) bool {
	decErr, ok := AsDecodeError(err)
	return ok && decErr.Kind == kind
}
