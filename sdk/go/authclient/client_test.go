package authclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/authsvc/sdk/go/authclient"
)

// fakeAuthsvc accepts one password and one live token.
type fakeAuthsvc struct {
	liveToken atomic.Value
	meCalls   atomic.Int32
}

func (f *fakeAuthsvc) handler() http.Handler {
	mux := http.NewServeMux()
	writeErr := func(w http.ResponseWriter, code int, msg string) {
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"statusCode": code, "message": msg})
	}
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var in struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Password != "Abcdefg1@" {
			writeErr(w, http.StatusUnauthorized, "Password not valid.")
			return
		}
		f.liveToken.Store("tok-1")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jwt":  "tok-1",
			"user": map[string]string{"id": "u1", "email": in.Email, "role": "ADMIN"},
		})
	})
	mux.HandleFunc("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusPreconditionFailed, "Email not valid.")
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		f.liveToken.Store("")
		_, _ = w.Write([]byte("Logout successful."))
	})
	mux.HandleFunc("/user/me", func(w http.ResponseWriter, r *http.Request) {
		f.meCalls.Add(1)
		live, _ := f.liveToken.Load().(string)
		if live == "" || r.Header.Get("Authorization") != "Bearer "+live {
			writeErr(w, http.StatusUnauthorized, "Access denied.")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "u1", "email": "ada@x.io", "role": "ADMIN"})
	})
	return mux
}

func TestClient_SignInVerifyLogout(t *testing.T) {
	fake := &fakeAuthsvc{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	c := authclient.New(srv.URL+"/", authclient.WithVerifyCache(time.Minute))
	ctx := context.Background()

	session, err := c.SignIn(ctx, "ada@x.io", "Abcdefg1@")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", session.JWT)
	assert.Equal(t, "ADMIN", session.User.Role)

	user, err := c.Verify(ctx, session.JWT)
	require.NoError(t, err)
	assert.Equal(t, "ada@x.io", user.Email)

	_, err = c.Verify(ctx, session.JWT)
	require.NoError(t, err)
	assert.Equal(t, int32(1), fake.meCalls.Load(), "second verify should be served from cache")

	require.NoError(t, c.Logout(ctx, session.JWT))
	_, err = c.Verify(ctx, session.JWT)
	assert.ErrorIs(t, err, authclient.ErrUnauthorized)
}

func TestClient_Errors(t *testing.T) {
	srv := httptest.NewServer((&fakeAuthsvc{}).handler())
	defer srv.Close()

	c := authclient.New(srv.URL)
	ctx := context.Background()

	_, err := c.SignIn(ctx, "ada@x.io", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, authclient.ErrUnauthorized)
	var apiErr *authclient.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Password not valid.", apiErr.Message)

	_, err = c.SignUp(ctx, authclient.SignUpInput{Email: "nope"})
	assert.ErrorIs(t, err, authclient.ErrPreconditionFailed)

	_, err = c.Verify(ctx, "whatever")
	assert.ErrorIs(t, err, authclient.ErrUnauthorized)
}
