package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hospital-ops/internal/model"
	"github.com/jwalitptl/hospital-ops/pkg/auth"
	apperrors "github.com/jwalitptl/hospital-ops/pkg/errors"
)

const ContextPrincipal = "principal"

type AuthMiddleware struct {
	tokens auth.TokenManager
}

func NewAuthMiddleware(tokens auth.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate verifies the bearer token and stores the caller's Principal
// in the context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, apperrors.NewUnauthorized("missing authorization header", nil))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abort(c, apperrors.NewUnauthorized("invalid authorization format", nil))
			return
		}

		claims, err := m.tokens.Parse(strings.TrimSpace(parts[1]))
		if err != nil {
			abort(c, apperrors.NewUnauthorized("invalid token", err))
			return
		}

		c.Set(ContextPrincipal, model.Principal{
			UserID:     claims.UserID,
			Email:      claims.Email,
			Role:       model.Role(claims.Role),
			HospitalID: claims.HospitalID,
		})
		c.Next()
	}
}

// RequireRoles rejects callers whose role is not listed.
func (m *AuthMiddleware) RequireRoles(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			abort(c, apperrors.NewUnauthorized("authentication required", nil))
			return
		}
		if !principal.HasRole(roles...) {
			abort(c, apperrors.Forbidden("access denied"))
			return
		}
		c.Next()
	}
}

func PrincipalFrom(c *gin.Context) (model.Principal, bool) {
	v, ok := c.Get(ContextPrincipal)
	if !ok {
		return model.Principal{}, false
	}
	p, ok := v.(model.Principal)
	return p, ok
}

func abort(c *gin.Context, err *apperrors.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus(), ErrorResponse{
		Status:  "error",
		Message: err.Message,
		TraceID: c.GetString(ContextRequestID),
	})
}
