package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/william251082/fileupload/auth"
	"github.com/william251082/fileupload/auth/authctx"
	apperrors "github.com/william251082/fileupload/errors"
)

// Auth requires a valid "Authorization: Bearer <token>" header. Parsed claims
// are stored in the request context with authctx.Set.
func Auth(validator auth.TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, apperrors.Unauthorized("Authorization header required."))
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abort(c, apperrors.Unauthorized("Invalid authorization header format."))
			return
		}

		claims, err := validator.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			appErr, ok := apperrors.AsAppError(err)
			if !ok {
				appErr = apperrors.InvalidToken().WithCause(err)
			}
			abort(c, appErr)
			return
		}

		c.Request = c.Request.WithContext(authctx.Set(c.Request.Context(), claims))
		c.Next()
	}
}

// StaticClaims attaches fixed claims to every request. Used when bearer
// authentication is disabled in development.
func StaticClaims(claims any) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(authctx.Set(c.Request.Context(), claims))
		c.Next()
	}
}

func abort(c *gin.Context, err *apperrors.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus, err.ToResponse())
}
