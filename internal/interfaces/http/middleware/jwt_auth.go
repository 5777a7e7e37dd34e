package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/authsvc/internal/application/dto"
	"github.com/turtacn/authsvc/internal/domain/service"
	"github.com/turtacn/authsvc/pkg/constants"
	"github.com/turtacn/authsvc/pkg/errors"
	"github.com/turtacn/authsvc/pkg/logger"
)

// RequireJWT is a middleware to protect routes that require a valid bearer token.
// On success the token subject is stored under constants.ContextKeySubject.
func RequireJWT(lifecycle *service.TokenLifecycleManager, codec service.TokenCodec, log logger.Logger) gin.HandlerFunc {
	log = log.WithComponent("jwt_auth")
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		token, err := service.ExtractBearer(c.GetHeader(constants.AuthorizationHeader))
		if err != nil {
			dto.SendError(c, err)
			return
		}

		// Decode first so the caller learns why the credential was refused.
		claims, err := codec.Decode(ctx, token)
		if err != nil {
			dto.SendError(c, err)
			return
		}

		valid, err := lifecycle.Validate(ctx, token, claims.Subject)
		if err != nil {
			log.Error(ctx, "Token validation failed", err)
			dto.SendError(c, err)
			return
		}
		if !valid {
			log.Warn(ctx, "Access attempt with rejected token", logger.String("subject", claims.Subject))
			dto.SendError(c, errors.ErrUnauthorized(constants.MsgAccessDenied))
			return
		}

		c.Set(string(constants.ContextKeySubject), claims.Subject)
		c.Set(string(constants.ContextKeyToken), token)
		c.Next()
	}
}
