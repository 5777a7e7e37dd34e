package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/authsvc/internal/application/dto"
	appService "github.com/turtacn/authsvc/internal/application/service"
	"github.com/turtacn/authsvc/internal/config"
	domainService "github.com/turtacn/authsvc/internal/domain/service"
	"github.com/turtacn/authsvc/internal/infrastructure/crypto"
	"github.com/turtacn/authsvc/internal/infrastructure/monitoring"
	"github.com/turtacn/authsvc/internal/infrastructure/persistence/postgres"
	"github.com/turtacn/authsvc/internal/infrastructure/persistence/redis"
	"github.com/turtacn/authsvc/internal/interfaces/http/handlers"
	"github.com/turtacn/authsvc/internal/interfaces/http/middleware"
	"github.com/turtacn/authsvc/pkg/constants"
	"github.com/turtacn/authsvc/pkg/errors"
	"github.com/turtacn/authsvc/pkg/logger"
)

// RouterTestSuite drives the full stack over HTTP: SQLite users, miniredis ledger, real codec.
type RouterTestSuite struct {
	suite.Suite
	mr      *miniredis.Miniredis
	client  *goredis.Client
	db      *postgres.DBConnection
	handler http.Handler
	now     time.Time
}

func (s *RouterTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	log := logger.NewNoopLogger()
	ctx := context.Background()

	var err error
	s.mr, err = miniredis.Run()
	s.Require().NoError(err)
	s.client = goredis.NewClient(&goredis.Options{Addr: s.mr.Addr()})

	name := strings.NewReplacer("/", "_", " ", "_").Replace(s.T().Name())
	s.db, err = postgres.NewDBConnection(ctx, &config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	}, log)
	s.Require().NoError(err)

	keys, err := crypto.NewSigningKeyProvider(base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef")))
	s.Require().NoError(err)

	registry := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(registry)

	s.now = time.Now()
	codec := crypto.NewJWTCodec(keys, log,
		crypto.WithClock(func() time.Time { return s.now }),
		crypto.WithCodecMetrics(metrics),
	)
	ledger := domainService.NewRevocationLedger(redis.NewLedgerRepository(s.client, time.Hour, log), log)
	lifecycle := domainService.NewTokenLifecycleManager(codec, ledger, time.Hour, log,
		domainService.WithLedgerCheck(true),
		domainService.WithMetrics(metrics),
	)
	svc := appService.NewAuthAppService(
		postgres.NewUserRepository(s.db.DB(), log),
		crypto.NewBcryptHasher(4),
		nil,
		lifecycle,
		metrics,
		log,
	)

	cfg := &config.Config{Server: config.ServerConfig{Host: "127.0.0.1", Port: 0, Environment: "test"}}
	router := NewRouter(cfg, log, RouterDeps{
		HealthHandler: handlers.NewHealthHandler(map[string]handlers.Pinger{
			"database": s.db,
			"redis":    redis.NewConnectionFromClient(s.client, log),
		}, log),
		AuthHandler: handlers.NewAuthHandler(svc),
		UserHandler: handlers.NewUserHandler(svc),
		Middleware:  handlers.NewMiddleware(log, metrics, nil),
		RequireJWT:  middleware.RequireJWT(lifecycle, codec, log),
		Gatherer:    registry,
	})
	s.handler = router.Handler()
}

func (s *RouterTestSuite) TearDownTest() {
	_ = s.db.Close()
	_ = s.client.Close()
	s.mr.Close()
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (s *RouterTestSuite) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(constants.AuthorizationHeader, constants.BearerPrefix+token)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func (s *RouterTestSuite) register(email string) *dto.AuthResponse {
	rr := s.do(http.MethodPost, "/auth/register", dto.SignUpRequest{
		FirstName: "Ada", LastName: "Lovelace", Email: email, Password: "Abcdefg1@", TeamName: "Engines",
	}, "")
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	var resp dto.AuthResponse
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	return &resp
}

func (s *RouterTestSuite) errorBody(rr *httptest.ResponseRecorder) errors.ErrorResponse {
	var body errors.ErrorResponse
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func (s *RouterTestSuite) TestRegisterThenMe() {
	resp := s.register("ada@x.io")
	s.NotEmpty(resp.JWT)
	s.Equal("ADMIN", resp.User.Role)

	rr := s.do(http.MethodGet, "/user/me", nil, resp.JWT)
	s.Equal(http.StatusOK, rr.Code)

	var me dto.UserResponse
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &me))
	s.Equal("ada@x.io", me.Email)
	s.Equal("Engines", me.TeamName)
}

func (s *RouterTestSuite) TestRegisterDuplicate() {
	s.register("ada@x.io")

	rr := s.do(http.MethodPost, "/auth/register", dto.SignUpRequest{Email: "ada@x.io", Password: "Abcdefg1@"}, "")
	s.Equal(http.StatusPreconditionFailed, rr.Code)
	body := s.errorBody(rr)
	s.Equal(http.StatusPreconditionFailed, body.StatusCode)
	s.Equal("The email ada@x.io is already in use.", body.Message)
}

func (s *RouterTestSuite) TestLongCredentialsFollowServiceOrder() {
	long := strings.Repeat("Ab1@", 20)[:79]
	s.register("ada@x.io")

	rr := s.do(http.MethodPost, "/auth/register", dto.SignUpRequest{Email: "ada@x.io", Password: long}, "")
	s.Equal(http.StatusPreconditionFailed, rr.Code)
	s.Equal("The email ada@x.io is already in use.", s.errorBody(rr).Message)

	rr = s.do(http.MethodPost, "/auth/register", dto.SignUpRequest{Email: "grace@x.io", Password: long}, "")
	s.Equal(http.StatusPreconditionFailed, rr.Code)
	s.Equal(constants.MsgPasswordMustRespectRules, s.errorBody(rr).Message)

	rr = s.do(http.MethodPost, "/auth/register", dto.SignUpRequest{Email: "grace@" + strings.Repeat("x", 255), Password: "Abcdefg1@"}, "")
	s.Equal(http.StatusPreconditionFailed, rr.Code)
	s.Equal(constants.MsgEmailNotValid, s.errorBody(rr).Message)

	rr = s.do(http.MethodPost, "/auth/login", dto.SignInRequest{Email: "grace@x.io", Password: long}, "")
	s.Equal(http.StatusNotFound, rr.Code)
	s.Equal("Email: grace@x.io not found.", s.errorBody(rr).Message)

	rr = s.do(http.MethodPost, "/auth/login", dto.SignInRequest{Email: "ada@x.io", Password: long}, "")
	s.Equal(http.StatusUnauthorized, rr.Code)
	s.Equal(constants.MsgPasswordNotValid, s.errorBody(rr).Message)
}

func (s *RouterTestSuite) TestEmailIsStoredAsSubmitted() {
	resp := s.register("ada@x.io ")
	s.Equal("ada@x.io ", resp.User.Email)

	rr := s.do(http.MethodPost, "/auth/login", dto.SignInRequest{Email: "ada@x.io ", Password: "Abcdefg1@"}, "")
	s.Equal(http.StatusOK, rr.Code, rr.Body.String())

	rr = s.do(http.MethodPost, "/auth/login", dto.SignInRequest{Email: "ada@x.io", Password: "Abcdefg1@"}, "")
	s.Equal(http.StatusNotFound, rr.Code)
}

func (s *RouterTestSuite) TestMeWithoutHeader() {
	rr := s.do(http.MethodGet, "/user/me", nil, "")
	s.Equal(http.StatusUnauthorized, rr.Code)
	s.Equal(constants.MsgMissingAuthHeader, s.errorBody(rr).Message)
}

func (s *RouterTestSuite) TestMeWithMalformedToken() {
	rr := s.do(http.MethodGet, "/user/me", nil, "abc")
	s.Equal(http.StatusUnauthorized, rr.Code)
	s.Equal(constants.MsgInvalidJWTToken, s.errorBody(rr).Message)
}

func (s *RouterTestSuite) TestMeWithExpiredToken() {
	resp := s.register("ada@x.io")
	s.now = s.now.Add(2 * time.Hour)

	rr := s.do(http.MethodGet, "/user/me", nil, resp.JWT)
	s.Equal(http.StatusUnauthorized, rr.Code)
	s.Equal(constants.MsgExpiredJWTToken, s.errorBody(rr).Message)
}

func (s *RouterTestSuite) TestLoginRevokesPreviousToken() {
	first := s.register("ada@x.io")
	s.now = s.now.Add(2 * time.Second)

	rr := s.do(http.MethodPost, "/auth/login", dto.SignInRequest{Email: "ada@x.io", Password: "Abcdefg1@"}, "")
	s.Require().Equal(http.StatusOK, rr.Code)
	var second dto.AuthResponse
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &second))
	s.NotEqual(first.JWT, second.JWT)

	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/user/me", nil, first.JWT).Code)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/user/me", nil, second.JWT).Code)
}

func (s *RouterTestSuite) TestLogout() {
	resp := s.register("ada@x.io")

	rr := s.do(http.MethodPost, "/auth/logout", nil, resp.JWT)
	s.Equal(http.StatusOK, rr.Code)
	s.Equal(constants.MsgLogoutSuccess, rr.Body.String())

	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/user/me", nil, resp.JWT).Code)
}

func (s *RouterTestSuite) TestNoRoute() {
	rr := s.do(http.MethodGet, "/nope", nil, "")
	s.Equal(http.StatusNotFound, rr.Code)
	body := s.errorBody(rr)
	s.Equal(http.StatusNotFound, body.StatusCode)
	s.Equal(constants.MsgRequestedPathNotFound, body.Message)
}

func (s *RouterTestSuite) TestHealthAndMetrics() {
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/health", nil, "").Code)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/live", nil, "").Code)
	s.register("ada@x.io")

	rr := s.do(http.MethodGet, "/metrics", nil, "")
	s.Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Body.String(), `authsvc_signup_total{result="success"} 1`)
	s.Contains(rr.Body.String(), "authsvc_http_request_duration_seconds")
}
