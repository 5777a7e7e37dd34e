package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/authsvc/internal/application/dto"
	"github.com/turtacn/authsvc/internal/application/service"
	"github.com/turtacn/authsvc/pkg/constants"
	"github.com/turtacn/authsvc/pkg/errors"
	"github.com/turtacn/authsvc/pkg/utils"
)

// AuthHandler handles HTTP requests for sign-in, sign-up and logout.
type AuthHandler struct {
	authService service.AuthAppService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthAppService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login godoc
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  dto.AuthResponse
// @Failure      401  {object}  errors.ErrorResponse
// @Failure      404  {object}  errors.ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.SignInRequest
	if !bindRequest(c, &req) {
		return
	}

	result, err := h.authService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, result)
}

// Register godoc
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  dto.AuthResponse
// @Failure      403  {object}  errors.ErrorResponse
// @Failure      412  {object}  errors.ErrorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.SignUpRequest
	if !bindRequest(c, &req) {
		return
	}

	result, err := h.authService.SignUp(c.Request.Context(), &req)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, result)
}

// Logout godoc
// @Summary      Log out
// @Description  Removes the ledger entry of the bearer token in the Authorization header.
// @Tags         auth
// @Produce      plain
// @Success      200  {string}  string
// @Failure      401  {object}  errors.ErrorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), c.GetHeader(constants.AuthorizationHeader)); err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendMessage(c, constants.MsgLogoutSuccess)
}

// bindRequest decodes the JSON body into req and applies its validate tags.
// It writes the 400 response itself and reports whether the handler may continue.
func bindRequest(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		dto.SendError(c, errors.ErrBadRequest(constants.MsgInvalidRequestBody).WithCause(err))
		return false
	}
	if err := utils.ValidateStruct(req); err != nil {
		dto.SendError(c, err)
		return false
	}
	return true
}
