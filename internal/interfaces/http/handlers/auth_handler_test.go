package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/authsvc/internal/application/dto"
	"github.com/turtacn/authsvc/pkg/constants"
	"github.com/turtacn/authsvc/pkg/errors"
	"github.com/turtacn/authsvc/pkg/logger"
)

// MockAuthAppService is a mock for the AuthAppService
type MockAuthAppService struct {
	mock.Mock
}

func (m *MockAuthAppService) SignIn(ctx context.Context, email, password string) (*dto.AuthResponse, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AuthResponse), args.Error(1)
}

func (m *MockAuthAppService) SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AuthResponse), args.Error(1)
}

func (m *MockAuthAppService) Logout(ctx context.Context, authorizationHeader string) error {
	args := m.Called(ctx, authorizationHeader)
	return args.Error(0)
}

func (m *MockAuthAppService) CurrentUser(ctx context.Context, subject string) (*dto.UserResponse, error) {
	args := m.Called(ctx, subject)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UserResponse), args.Error(1)
}

func newTestEngine(svc *MockAuthAppService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	mw := NewMiddleware(logger.NewNoopLogger(), nil, nil)
	auth := NewAuthHandler(svc)
	user := NewUserHandler(svc)

	router := gin.New()
	router.Use(mw.Recovery(), mw.RequestID())
	router.POST("/auth/login", auth.Login)
	router.POST("/auth/register", auth.Register)
	router.POST("/auth/logout", auth.Logout)
	router.GET("/user/me", func(c *gin.Context) {
		if subject := c.GetHeader("X-Test-Subject"); subject != "" {
			c.Set(string(constants.ContextKeySubject), subject)
		}
		c.Next()
	}, user.Me)
	return router
}

func doJSON(router http.Handler, method, path string, body interface{}, header http.Header) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errors.ErrorResponse {
	t.Helper()
	var body errors.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("Successfully sign in", func(t *testing.T) {
		svc := new(MockAuthAppService)
		router := newTestEngine(svc)

		resp := &dto.AuthResponse{JWT: "test-token", User: &dto.UserResponse{ID: "u1", Email: "ada@x.io"}}
		svc.On("SignIn", mock.Anything, "ada@x.io", "Abcdefg1@").Return(resp, nil).Once()

		rr := doJSON(router, http.MethodPost, "/auth/login", dto.SignInRequest{Email: "ada@x.io", Password: "Abcdefg1@"}, nil)

		assert.Equal(t, http.StatusOK, rr.Code)
		var body dto.AuthResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "test-token", body.JWT)
		assert.Equal(t, "ada@x.io", body.User.Email)
		assert.NotEmpty(t, rr.Header().Get(constants.HeaderRequestID))
		svc.AssertExpectations(t)
	})

	t.Run("Unknown email maps to 404", func(t *testing.T) {
		svc := new(MockAuthAppService)
		router := newTestEngine(svc)
		svc.On("SignIn", mock.Anything, "ghost@x.io", "pw").Return(nil, errors.ErrEmailNotFound("ghost@x.io")).Once()

		rr := doJSON(router, http.MethodPost, "/auth/login", dto.SignInRequest{Email: "ghost@x.io", Password: "pw"}, nil)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		body := decodeError(t, rr)
		assert.Equal(t, http.StatusNotFound, body.StatusCode)
		assert.Equal(t, "Email: ghost@x.io not found.", body.Message)
	})

	t.Run("Wrong password maps to 401", func(t *testing.T) {
		svc := new(MockAuthAppService)
		router := newTestEngine(svc)
		svc.On("SignIn", mock.Anything, "ada@x.io", "nope").
			Return(nil, errors.ErrUnauthorized(constants.MsgPasswordNotValid)).Once()

		rr := doJSON(router, http.MethodPost, "/auth/login", dto.SignInRequest{Email: "ada@x.io", Password: "nope"}, nil)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, constants.MsgPasswordNotValid, decodeError(t, rr).Message)
	})

	t.Run("Malformed body maps to 400", func(t *testing.T) {
		svc := new(MockAuthAppService)
		router := newTestEngine(svc)

		rr := doJSON(router, http.MethodPost, "/auth/login", "{not json", nil)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, constants.MsgInvalidRequestBody, decodeError(t, rr).Message)
		svc.AssertNotCalled(t, "SignIn", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Long credentials reach the service", func(t *testing.T) {
		svc := new(MockAuthAppService)
		router := newTestEngine(svc)
		long := strings.Repeat("a", 100)
		svc.On("SignIn", mock.Anything, "ada@x.io", long).
			Return(nil, errors.ErrEmailNotFound("ada@x.io")).Once()

		rr := doJSON(router, http.MethodPost, "/auth/login",
			dto.SignInRequest{Email: "ada@x.io", Password: long}, nil)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		svc.AssertExpectations(t)
	})

	t.Run("Store failure hides its message", func(t *testing.T) {
		svc := new(MockAuthAppService)
		router := newTestEngine(svc)
		svc.On("SignIn", mock.Anything, "ada@x.io", "pw").
			Return(nil, errors.Wrap(stderrors.New("dial tcp: refused"), "find user")).Once()

		rr := doJSON(router, http.MethodPost, "/auth/login", dto.SignInRequest{Email: "ada@x.io", Password: "pw"}, nil)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, constants.MsgInternalError, decodeError(t, rr).Message)
	})
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("Successfully sign up", func(t *testing.T) {
		svc := new(MockAuthAppService)
		router := newTestEngine(svc)

		req := dto.SignUpRequest{FirstName: "Ada", LastName: "Lovelace", Email: "ada@x.io", Password: "Abcdefg1@", TeamName: "Engines"}
		svc.On("SignUp", mock.Anything, mock.MatchedBy(func(r *dto.SignUpRequest) bool {
			return r.Email == req.Email && r.TeamName == req.TeamName
		})).Return(&dto.AuthResponse{JWT: "jwt-1", User: &dto.UserResponse{Email: "ada@x.io", Role: "ADMIN"}}, nil).Once()

		rr := doJSON(router, http.MethodPost, "/auth/register", req, nil)

		assert.Equal(t, http.StatusOK, rr.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "jwt-1", body["jwt"])
		svc.AssertExpectations(t)
	})

	t.Run("Duplicate email maps to 412", func(t *testing.T) {
		svc := new(MockAuthAppService)
		router := newTestEngine(svc)
		svc.On("SignUp", mock.Anything, mock.Anything).Return(nil, errors.ErrEmailAlreadyInUse("ada@x.io")).Once()

		rr := doJSON(router, http.MethodPost, "/auth/register", dto.SignUpRequest{Email: "ada@x.io", Password: "Abcdefg1@"}, nil)

		assert.Equal(t, http.StatusPreconditionFailed, rr.Code)
		body := decodeError(t, rr)
		assert.Equal(t, http.StatusPreconditionFailed, body.StatusCode)
		assert.Equal(t, "The email ada@x.io is already in use.", body.Message)
	})

	t.Run("Oversized name maps to 400", func(t *testing.T) {
		svc := new(MockAuthAppService)
		router := newTestEngine(svc)

		rr := doJSON(router, http.MethodPost, "/auth/register",
			dto.SignUpRequest{FirstName: strings.Repeat("a", 101), Email: "ada@x.io", Password: "Abcdefg1@"}, nil)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		svc.AssertNotCalled(t, "SignUp", mock.Anything, mock.Anything)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	t.Run("Passes the raw header through", func(t *testing.T) {
		svc := new(MockAuthAppService)
		router := newTestEngine(svc)
		svc.On("Logout", mock.Anything, "Bearer abc").Return(nil).Once()

		rr := doJSON(router, http.MethodPost, "/auth/logout", nil,
			http.Header{constants.AuthorizationHeader: []string{"Bearer abc"}})

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, constants.MsgLogoutSuccess, rr.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("Missing header maps to 401", func(t *testing.T) {
		svc := new(MockAuthAppService)
		router := newTestEngine(svc)
		svc.On("Logout", mock.Anything, "").Return(errors.ErrMissingAuthorizationHeader()).Once()

		rr := doJSON(router, http.MethodPost, "/auth/logout", nil, nil)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, constants.MsgMissingAuthHeader, decodeError(t, rr).Message)
	})
}

func TestUserHandler_Me(t *testing.T) {
	t.Run("Returns the subject's profile", func(t *testing.T) {
		svc := new(MockAuthAppService)
		router := newTestEngine(svc)
		svc.On("CurrentUser", mock.Anything, "ada@x.io").
			Return(&dto.UserResponse{ID: "u1", Email: "ada@x.io"}, nil).Once()

		rr := doJSON(router, http.MethodGet, "/user/me", nil, http.Header{"X-Test-Subject": []string{"ada@x.io"}})

		assert.Equal(t, http.StatusOK, rr.Code)
		var body dto.UserResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "u1", body.ID)
		assert.NotContains(t, rr.Body.String(), "password")
	})

	t.Run("Without a subject", func(t *testing.T) {
		svc := new(MockAuthAppService)
		router := newTestEngine(svc)

		rr := doJSON(router, http.MethodGet, "/user/me", nil, nil)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		svc.AssertNotCalled(t, "CurrentUser", mock.Anything, mock.Anything)
	})
}

func TestMiddleware_RecoveryAndRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mw := NewMiddleware(logger.NewNoopLogger(), nil, nil)
	router := gin.New()
	router.Use(mw.Recovery(), mw.RequestID())
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set(constants.HeaderRequestID, "req-42")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "req-42", rr.Header().Get(constants.HeaderRequestID))
	assert.Equal(t, constants.MsgInternalError, decodeError(t, rr).Message)
}
