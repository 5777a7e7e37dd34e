package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/authsvc/pkg/errors"
)

func TestValidateEmail(t *testing.T) {
	valid := []string{"a@b.com", "first.last+tag@example.org", "x_y-z@localhost"}
	for _, email := range valid {
		assert.True(t, ValidateEmail(email), email)
	}

	invalid := []string{"", "plainaddress", "@example.com", "a b@c.com", "a@", "a@" + strings.Repeat("b", 254)}
	for _, email := range invalid {
		assert.False(t, ValidateEmail(email), email)
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"Passw0rd!", true},
		{"Aa1#Aa1#", true},
		{"Abcdefg1@Abcdefg1@Abcdefg1@Abcde", true},
		{"short1", false},
		{"Passw0rd", false},
		{"passw0rd!", false},
		{"PASSW0RD!", false},
		{"Password!", false},
		{"Passw0rd$", false},
		{"Passw0rd! ", false},
		{"Abcdefg1@Abcdefg1@Abcdefg1@Abcdef", false},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidatePassword(tt.password))
		})
	}
}

func TestValidateStruct(t *testing.T) {
	type request struct {
		Email    string `validate:"required"`
		Password string `validate:"required"`
	}

	assert.NoError(t, ValidateStruct(&request{Email: "a@b.com", Password: "x"}))

	err := ValidateStruct(&request{Email: "a@b.com"})
	require.Error(t, err)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.KindBadRequest, appErr.Kind())
	assert.Equal(t, "is required", appErr.Metadata()["password"])
}
