package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/authsvc/internal/application/dto"
	"github.com/turtacn/authsvc/internal/application/service"
	"github.com/turtacn/authsvc/pkg/constants"
	"github.com/turtacn/authsvc/pkg/errors"
)

// UserHandler serves endpoints about the authenticated user.
type UserHandler struct {
	authService service.AuthAppService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(authService service.AuthAppService) *UserHandler {
	return &UserHandler{authService: authService}
}

// Me godoc
// @Summary      Current user
// @Description  Returns the user identified by the subject of the bearer token.
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.UserResponse
// @Failure      401  {object}  errors.ErrorResponse
// @Failure      404  {object}  errors.ErrorResponse
// @Router       /user/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	subject := c.GetString(string(constants.ContextKeySubject))
	if subject == "" {
		dto.SendError(c, errors.ErrUnauthorized(constants.MsgAccessDenied))
		return
	}

	user, err := h.authService.CurrentUser(c.Request.Context(), subject)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, user)
}
