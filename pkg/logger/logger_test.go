package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeValue(t *testing.T) {
	assert.Equal(t, "eyJh***Xk9Q", SanitizeValue("token", "eyJhbGciOiJIUzI1NiJ9.e30.Xk9Q"))
	assert.Equal(t, "***", SanitizeValue("password", "short"))
	assert.Equal(t, "***REDACTED***", SanitizeValue("jwt_secret", []byte("raw")))
	assert.Equal(t, "a@b.com", SanitizeValue("email", "a@b.com"))
}
